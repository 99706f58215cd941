package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollUsers = "users"

// User 表示一个账号主档。本地账号带 bcrypt 密码；Google 账号无密码，
// 以 google_id 关联。验证/重置令牌随用随清。
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email      string             `bson:"email" json:"email"`
	FullName   string             `bson:"full_name" json:"fullName"`
	Password   string             `bson:"password,omitempty" json:"-"`
	ProfilePic string             `bson:"profile_pic" json:"profilePic"`

	GoogleID     string `bson:"google_id,omitempty" json:"-"`
	IsGoogleUser bool   `bson:"is_google_user" json:"isGoogleUser"`

	EmailVerified     bool       `bson:"email_verified" json:"emailVerified"`
	VerifyToken       string     `bson:"verify_token,omitempty" json:"-"`
	VerifyTokenExpiry *time.Time `bson:"verify_token_expiry,omitempty" json:"-"`

	ResetToken       string     `bson:"reset_token,omitempty" json:"-"`
	ResetTokenExpiry *time.Time `bson:"reset_token_expiry,omitempty" json:"-"`

	CreateTime time.Time `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time `bson:"update_time" json:"updatedAt"`
}
