package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/showcue/showcue-core/internal/infrastructure/config"
)

const (
	// defaultConnectTimeout bounds the initial dial; startup fails fast
	// if the broker is unreachable.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout bounds waiting for a broker acknowledgement.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce (ms) lets in-flight publishes drain on a
	// clean shutdown, the graceful offline record included.
	defaultDisconnectQuiesce = 1000

	// defaultKeepAlive paces the PING exchange that detects dead links.
	defaultKeepAlive = 60 * time.Second

	maxQoS = 2

	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions translates the service config into a paho session:
// broker URL (tcp or ssl), client identity, optional credentials, clean
// session, and auto-reconnect with the configured backoff window.
//
// Clean session is deliberate. The scheduler re-subscribes on every
// connect and its state topics are retained, so a persistent broker
// session would only queue stale duplicates while it was away.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

// configureLWT arms the broker-side crash report: if the scheduler dies
// without a clean Close, the broker publishes an offline record on the
// retained status topic on its behalf. Dashboards watching that topic
// therefore distinguish three states — online, gracefully stopped, and
// crashed — from a single subscription.
func configureLWT(opts *pahomqtt.ClientOptions, clientID string) {
	willTopic := Topics{}.SystemStatus()
	willPayload := fmt.Sprintf(
		`{"status":"offline","client_id":"%s","reason":"unexpected_disconnect","timestamp":"%s"}`,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)

	opts.SetWill(willTopic, willPayload, 1, true)
}

// buildOnlinePayload is the retained liveness record published on every
// (re)connect.
func buildOnlinePayload(clientID string) string {
	return fmt.Sprintf(
		`{"status":"online","client_id":"%s","timestamp":"%s"}`,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// buildOfflinePayload is the graceful counterpart to the Last Will.
func buildOfflinePayload(clientID string) string {
	return fmt.Sprintf(
		`{"status":"offline","client_id":"%s","reason":"graceful_shutdown","timestamp":"%s"}`,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)
}
