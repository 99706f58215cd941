package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LinkChat/global"
	"LinkChat/logger"
	connhandler "LinkChat/module/connection"
	connservice "LinkChat/module/connection/service"
	msghandler "LinkChat/module/message"
	msgservice "LinkChat/module/message/service"
	userhandler "LinkChat/module/user"
	userservice "LinkChat/module/user/service"
	"LinkChat/service/email"
	"LinkChat/service/mgo"
	"LinkChat/service/relay"
	"LinkChat/service/storage"
	"LinkChat/service/upload"
	"LinkChat/tools/security"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	conf, err := global.Load()
	if err != nil {
		logger.Errorf("[boot] config: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := mgo.Init(ctx, mgo.Config{URI: conf.MongoURI, Database: conf.MongoDatabase}); err != nil {
		logger.Errorf("[boot] mongo: %v", err)
		os.Exit(1)
	}
	defer func() { _ = mgo.Close(context.Background()) }()

	// Presence mirror is optional; boot proceeds without redis.
	var mirror *storage.Presence
	if conf.RedisAddr != "" {
		hostname, _ := os.Hostname()
		mirror, err = storage.NewPresence(storage.Config{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		}, hostname, 5*time.Minute)
		if err != nil {
			logger.Warnf("[boot] redis presence mirror disabled: %v", err)
			mirror = nil
		} else {
			defer func() { _ = mirror.Close() }()
		}
	}

	auth := security.DefaultOptions(conf.JWTSecret)
	auth.TTL = conf.TokenTTL

	mail := email.NewSender(email.Config{
		Host:      conf.SMTPHost,
		Port:      conf.SMTPPort,
		User:      conf.SMTPUser,
		Password:  conf.SMTPPass,
		From:      conf.MailFrom,
		ClientURL: conf.ClientURL,
	})
	uploads, err := upload.New(conf.CloudinaryURL)
	if err != nil {
		logger.Errorf("[boot] cloudinary: %v", err)
		os.Exit(1)
	}

	rly := relay.NewServer(relay.ServerConfig{
		Auth:            auth,
		AllowUnverified: conf.RelayAllowUnverified,
		Mirror:          mirror,
	})

	db := mgo.DB()
	userSvc := userservice.New(db, mail, uploads, auth)
	googleAuth := userservice.NewGoogleAuth(userservice.GoogleConfig{
		ClientID:     conf.GoogleClientID,
		ClientSecret: conf.GoogleClientSecret,
		RedirectURL:  conf.GoogleRedirectURL,
	}, userSvc)
	connSvc := connservice.New(db)
	msgSvc := msgservice.New(db, connSvc, uploads, rly)

	idxCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	for _, ensure := range []func(context.Context) error{
		userSvc.EnsureIndexes, connSvc.EnsureIndexes, msgSvc.EnsureIndexes,
	} {
		if err := ensure(idxCtx); err != nil {
			logger.Errorf("[boot] indexes: %v", err)
			os.Exit(1)
		}
	}

	router := buildRouter(
		conf.Origins,
		auth,
		userhandler.NewHandler(userSvc, googleAuth, conf.ClientURL),
		connhandler.NewHandler(connSvc),
		msghandler.NewHandler(msgSvc),
		rly,
	)

	srv := &http.Server{Addr: ":" + conf.Port, Handler: router}
	go func() {
		logger.Infof("[boot] listening on :%s", conf.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("[boot] serve: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("[boot] shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
}
