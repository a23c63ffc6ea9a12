package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
	"github.com/gyaneshwarpardhi/notifyflow/internal/channel/email"
	"github.com/gyaneshwarpardhi/notifyflow/internal/channel/inapp"
	"github.com/gyaneshwarpardhi/notifyflow/internal/channel/teams"
	"github.com/gyaneshwarpardhi/notifyflow/internal/channel/telegram"
	"github.com/gyaneshwarpardhi/notifyflow/internal/channel/whatsapp"
	"github.com/gyaneshwarpardhi/notifyflow/internal/config"
	"github.com/gyaneshwarpardhi/notifyflow/internal/dispatch"
	"github.com/gyaneshwarpardhi/notifyflow/internal/store"
	"github.com/gyaneshwarpardhi/notifyflow/internal/template"
)

func newRedis(ctx context.Context, addr string) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		// go-redis reconnects on demand; the cache falls through meanwhile
		slog.Warn("redis not reachable at startup", "addr", addr, "err", err)
	} else {
		slog.Info("connected to redis", "addr", addr)
	}
	return client
}

func buildStore(ctx context.Context, conf config.StoreConf, rdb *redis.Client) (store.Store, error) {
	var st store.Store
	switch conf.Driver {
	case "postgres":
		pg, err := store.NewPostgres(conf.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if conf.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return nil, err
			}
		}
		st = pg
	case "memory":
		st = store.NewMemory()
	default:
		return nil, fmt.Errorf("unknown store driver %q", conf.Driver)
	}
	if rdb != nil {
		st = store.NewCachedPreferences(st, rdb, conf.PreferenceCacheTTL())
	}
	return st, nil
}

func buildChannels(ctx context.Context, conf config.ChannelsConf, rdb *redis.Client) *channel.Registry {
	reg := channel.NewRegistry()

	if c := conf.Email; c.Enabled {
		providers := email.NewProviders()
		providers.Register(email.NewSESProvider(ctx, c.Region))
		providers.Register(email.NewResendProvider(c.ResendAPIKey))
		if err := providers.SetPrimary(c.Provider); err != nil {
			slog.Warn("email primary provider", "err", err)
		}
		if err := providers.SetFallback(c.Fallback...); err != nil {
			slog.Warn("email fallback providers", "err", err)
		}
		reg.Register(channel.RateLimited(email.New(c.From, providers), c.RatePerSec))
	}
	if c := conf.Teams; c.Enabled {
		reg.Register(channel.RateLimited(teams.New(c.WebhookURL), c.RatePerSec))
	}
	if c := conf.WhatsApp; c.Enabled {
		reg.Register(channel.RateLimited(whatsapp.New(c.GatewayURL, c.Token), c.RatePerSec))
	}
	if c := conf.Telegram; c.Enabled {
		tg, err := telegram.New(c.Token)
		if err != nil {
			slog.Warn("telegram channel disabled", "err", err)
		} else {
			reg.Register(channel.RateLimited(tg, c.RatePerSec))
		}
	}
	if c := conf.InApp; c.Enabled {
		if rdb == nil {
			slog.Warn("in_app channel disabled: store.redis_addr not set")
		} else {
			reg.Register(channel.RateLimited(inapp.New(rdb), c.RatePerSec))
		}
	}
	return reg
}

func warnUnrouted(reg *template.Registry, channels *channel.Registry) {
	for id, missing := range dispatch.UnroutedChannels(reg, channels) {
		slog.Warn("template lists channels with no enabled adapter", "template", id, "channels", missing)
	}
}
