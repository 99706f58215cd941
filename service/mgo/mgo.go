package mgo

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
}

var (
	mgoOnce sync.Once
	mgoMgr  *MongoManager
)

type MongoManager struct {
	client *mongo.Client
	db     *mongo.Database
}

// Init 初始化 Mongo 管理器（单例）；连接并 ping 一次，失败即返回错误。
func Init(ctx context.Context, cfg Config) error {
	var initErr error
	mgoOnce.Do(func() {
		if cfg.MaxPoolSize == 0 {
			cfg.MaxPoolSize = 20
		}
		opts := options.Client().ApplyURI(cfg.URI).SetMaxPoolSize(cfg.MaxPoolSize)

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cli, err := mongo.Connect(ctx, opts)
		if err != nil {
			initErr = errors.Wrap(err, "mongo connect")
			return
		}
		if err := cli.Ping(ctx, readpref.Primary()); err != nil {
			initErr = errors.Wrap(err, "mongo ping")
			return
		}
		mgoMgr = &MongoManager{client: cli, db: cli.Database(cfg.Database)}
	})
	return initErr
}

// DB 获取数据库句柄
func DB() *mongo.Database {
	if mgoMgr == nil {
		panic("mongo not initialized, call mgo.Init first")
	}
	return mgoMgr.db
}

// Close 关闭连接
func Close(ctx context.Context) error {
	if mgoMgr != nil && mgoMgr.client != nil {
		return mgoMgr.client.Disconnect(ctx)
	}
	return nil
}
