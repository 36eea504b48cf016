package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fiveboroughs/twilio2telegram/pkg/bus"
	"github.com/fiveboroughs/twilio2telegram/pkg/channels"
	"github.com/fiveboroughs/twilio2telegram/pkg/config"
	"github.com/fiveboroughs/twilio2telegram/pkg/gateway"
	"github.com/fiveboroughs/twilio2telegram/pkg/logger"
	"github.com/fiveboroughs/twilio2telegram/pkg/notify"
	"github.com/fiveboroughs/twilio2telegram/pkg/recipients"
	"github.com/fiveboroughs/twilio2telegram/pkg/webhook"
)

func serveCmd() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.FatalCF("main", "Invalid configuration", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	msgBus := bus.NewMessageBus()
	defer msgBus.Close()

	channel, err := channels.NewFromConfig(cfg.Chat, msgBus)
	if err != nil {
		logger.FatalCF("main", "Failed to create chat channel", map[string]interface{}{
			"provider": cfg.Chat.Provider,
			"error":    err.Error(),
		})
		return
	}

	manager := channels.NewManager(msgBus)
	manager.Register(channel)
	if err := manager.StartAll(ctx); err != nil {
		logger.FatalCF("main", "Failed to start chat channel", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	go func() {
		if err := gateway.NewCommandGateway(msgBus, cfg.Bot.HelpURL).Run(ctx); err != nil {
			logger.ErrorCF("main", "Command gateway stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	directory := recipients.Parse(cfg.Recipients.Owner, cfg.Recipients.Subscribers)
	dispatcher := notify.NewDispatcher(channel, directory, notify.Options{
		SendTimeout: cfg.Dispatch.SendTimeout,
	})
	logger.InfoCF("main", "Recipients loaded", map[string]interface{}{
		"provider":    channel.Name(),
		"subscribers": directory.Len(),
	})

	server := webhook.NewServer(webhook.ServerConfig{
		Addr:      cfg.Server.Addr(),
		AuthToken: cfg.Twilio.AuthToken,
		PublicURL: cfg.Twilio.PublicURL,
	}, dispatcher)

	runErr := server.Run(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	manager.StopAll(shutdownCtx)

	if runErr != nil {
		logger.FatalCF("main", "Webhook server failed", map[string]interface{}{
			"error": runErr.Error(),
		})
	}
	logger.InfoC("main", "Shut down")
}
