package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type RedisConfig struct {
	Host     string        `yaml:"host" json:"host" toml:"host"`
	Port     string        `yaml:"port" json:"port" toml:"port"`
	User     string        `yaml:"user,omitempty" json:"user,omitempty" toml:"user,omitempty"`
	Password config.Secret `yaml:"password,omitempty" json:"password,omitempty" toml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty" json:"db,omitempty" toml:"db,omitempty"`
	// Channels and keys are "<prefix>:<account>"
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty" toml:"prefix,omitempty"`
}

const DefaultRedisPrefix = "stakeboard:balance"

func (cfg RedisConfig) Enabled() bool {
	return cfg.Host != ""
}

// RedisFeed receives balance updates published by an indexing service. The
// latest value is also stored under the channel name, and read on subscribe.
type RedisFeed struct {
	client *redis.Client
	prefix string
}

var _ BalanceFeed = &RedisFeed{}

func NewRedisFeed(ctx context.Context, cfg RedisConfig) (*RedisFeed, error) {
	var password string
	if cfg.Password != "" {
		var err error
		if password, err = cfg.Password.Load(); err != nil {
			return nil, fmt.Errorf("could not load redis password: %w", err)
		}
	}
	port := cfg.Port
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + port,
		Username: cfg.User,
		Password: password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("could not reach redis at %s: %w", cfg.Host, err)
	}
	return NewRedisFeedFromClient(client, cfg.Prefix), nil
}

func NewRedisFeedFromClient(client *redis.Client, prefix string) *RedisFeed {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisFeed{client: client, prefix: prefix}
}

func (f *RedisFeed) Channel(account sb.Address) string {
	return f.prefix + ":" + string(sb.NormalizeAddress(string(account)))
}

func (f *RedisFeed) Subscribe(ctx context.Context, account sb.Address, onChange func(newAmount string)) error {
	channel := f.Channel(account)
	log := logrus.WithFields(logrus.Fields{"component": "redis-feed", "channel": channel})

	sub := f.client.Subscribe(ctx, channel)
	defer sub.Close()
	// wait for the subscription so no update is lost between the read and the subscribe
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("could not subscribe to %s: %w", channel, err)
	}

	latest, err := f.client.Get(ctx, channel).Result()
	switch {
	case err == redis.Nil:
	case err != nil:
		log.WithError(err).Warn("could not read latest balance")
	default:
		if amount, err := ParseBalanceMessage(latest); err == nil {
			onChange(amount)
		}
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", channel)
			}
			amount, err := ParseBalanceMessage(msg.Payload)
			if err != nil {
				log.WithError(err).Warn("ignoring balance message")
				continue
			}
			onChange(amount)
		}
	}
}

// Publish stores and broadcasts a new balance, as the indexing service does.
func (f *RedisFeed) Publish(ctx context.Context, account sb.Address, amount sb.AmountBlockchain) error {
	channel := f.Channel(account)
	payload, err := json.Marshal(balanceMessage{Account: sb.NormalizeAddress(string(account)), Balance: amount.String()})
	if err != nil {
		return err
	}
	if err := f.client.Set(ctx, channel, string(payload), 0).Err(); err != nil {
		return fmt.Errorf("fail to store balance, err: %w", err)
	}
	return f.client.Publish(ctx, channel, string(payload)).Err()
}

func (f *RedisFeed) Close() error {
	return f.client.Close()
}

type balanceMessage struct {
	Account sb.Address `json:"account,omitempty"`
	Balance string     `json:"balance"`
}

// ParseBalanceMessage accepts either a bare integer or {"balance": "..."}.
func ParseBalanceMessage(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "{") {
		var msg balanceMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return "", fmt.Errorf("invalid balance message: %w", err)
		}
		payload = strings.TrimSpace(msg.Balance)
	}
	if _, err := sb.ParseAmountBlockchain(payload); err != nil {
		return "", fmt.Errorf("invalid balance %q: %w", payload, err)
	}
	return payload, nil
}
