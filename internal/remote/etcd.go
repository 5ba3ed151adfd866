package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/fairsplit/syncengine/internal/retry"
)

// EtcdClient wraps the etcd connection the document store adapter runs on.
type EtcdClient struct {
	client *clientv3.Client
	prefix string
}

// NewEtcdClient creates a new etcd client with DSN parsing.
func NewEtcdClient(dsn string) (*EtcdClient, error) {
	config, err := parseEtcdDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse etcd DSN: %w", err)
	}

	client, err := clientv3.New(*config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	logrus.WithField("endpoints", config.Endpoints).Info("Connected to etcd successfully")

	return &EtcdClient{
		client: client,
		prefix: etcdPrefix(dsn),
	}, nil
}

// NewEtcdClientWithRetry creates the client, retrying with backoff until the
// endpoint answers a status probe.
func NewEtcdClientWithRetry(ctx context.Context, dsn string) (*EtcdClient, error) {
	var client *EtcdClient
	err := retry.WithOperation(ctx, retry.RemoteDefaults(), func() error {
		var attemptErr error
		client, attemptErr = NewEtcdClient(dsn)
		if attemptErr != nil {
			return attemptErr
		}
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, attemptErr = client.client.Status(probeCtx, client.client.Endpoints()[0]); attemptErr != nil {
			client.Close()
			return attemptErr
		}
		return nil
	}, "etcd_connect")
	if err != nil {
		logrus.WithError(err).Error("Failed to establish etcd connection after all retries")
		return nil, err
	}
	return client, nil
}

// Close closes the etcd client connection.
func (c *EtcdClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Prefix returns the key namespace parsed from the DSN.
func (c *EtcdClient) Prefix() string { return c.prefix }

func (c *EtcdClient) put(ctx context.Context, key, value string) error {
	if _, err := c.client.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}
	return nil
}

// get returns the value at key, or false when the key does not exist.
func (c *EtcdClient) get(ctx context.Context, key string) (string, bool, error) {
	resp, err := c.client.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return "", false, nil
	}
	return string(resp.Kvs[0].Value), true, nil
}

// getRange returns every value under prefix in key order.
func (c *EtcdClient) getRange(ctx context.Context, prefix string) ([]string, error) {
	resp, err := c.client.Get(ctx, prefix,
		clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("failed to range over %s: %w", prefix, err)
	}
	values := make([]string, len(resp.Kvs))
	for i, kv := range resp.Kvs {
		values[i] = string(kv.Value)
	}
	return values, nil
}

func (c *EtcdClient) delete(ctx context.Context, key string) error {
	if _, err := c.client.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// parseEtcdDSN parses etcd DSN format: etcd://host1:port1[,host2:port2]/[prefix]?param=value
func parseEtcdDSN(dsn string) (*clientv3.Config, error) {
	if dsn == "" {
		return &clientv3.Config{
			Endpoints:   []string{"127.0.0.1:2379"},
			DialTimeout: 5 * time.Second,
		}, nil
	}

	if !strings.HasPrefix(dsn, "etcd://") {
		return nil, fmt.Errorf("etcd DSN must start with etcd://")
	}

	u, err := url.Parse("dummy://" + strings.TrimPrefix(dsn, "etcd://"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	endpoints := strings.Split(u.Host, ",")
	for i, endpoint := range endpoints {
		if !strings.Contains(endpoint, ":") {
			endpoints[i] = endpoint + ":2379" // default etcd port
		}
	}

	config := &clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	}

	params := u.Query()
	if timeout := params.Get("dial_timeout"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.DialTimeout = d
		}
	}
	if username := params.Get("username"); username != "" {
		config.Username = username
	}
	if password := params.Get("password"); password != "" {
		config.Password = password
	}
	if tlsParam := params.Get("tls"); tlsParam == "enabled" {
		config.TLS = &tls.Config{
			InsecureSkipVerify: true, // development only
		}
	}

	return config, nil
}

// etcdPrefix extracts the key namespace from the DSN path.
func etcdPrefix(dsn string) string {
	if dsn == "" || !strings.HasPrefix(dsn, "etcd://") {
		return "/"
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
