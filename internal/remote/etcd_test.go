package remote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEtcdDSNDefaults(t *testing.T) {
	config, err := parseEtcdDSN("")
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:2379"}, config.Endpoints)
	assert.Equal(t, 5*time.Second, config.DialTimeout)
}

func TestParseEtcdDSNEndpoints(t *testing.T) {
	config, err := parseEtcdDSN("etcd://host1:2379,host2:2380/fairsplit")
	require.NoError(t, err)
	assert.Equal(t, []string{"host1:2379", "host2:2380"}, config.Endpoints)
}

func TestParseEtcdDSNDefaultPort(t *testing.T) {
	config, err := parseEtcdDSN("etcd://host1/fairsplit")
	require.NoError(t, err)
	assert.Equal(t, []string{"host1:2379"}, config.Endpoints)
}

func TestParseEtcdDSNOptions(t *testing.T) {
	config, err := parseEtcdDSN("etcd://host1:2379/app?dial_timeout=10s&username=sync&password=secret&tls=enabled")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, config.DialTimeout)
	assert.Equal(t, "sync", config.Username)
	assert.Equal(t, "secret", config.Password)
	assert.NotNil(t, config.TLS)
}

func TestParseEtcdDSNBadScheme(t *testing.T) {
	_, err := parseEtcdDSN("http://host1:2379")
	assert.Error(t, err)
}

func TestEtcdPrefix(t *testing.T) {
	assert.Equal(t, "/", etcdPrefix(""))
	assert.Equal(t, "/", etcdPrefix("etcd://host1:2379"))
	assert.Equal(t, "/fairsplit", etcdPrefix("etcd://host1:2379/fairsplit"))
}
