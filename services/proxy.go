// ABOUTME: Optional SSH+SOCKS5 tunnel for reaching the records API
// ABOUTME: Builds an http.Transport that dials through EKA_ALL_PROXY when configured

package services

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	proxy "github.com/cloudfoundry/socks5-proxy"
)

// NewUpstreamTransport returns a transport for records API and document traffic. An empty
// allProxy, or one that cannot be parsed, yields a direct transport.
func NewUpstreamTransport(allProxy string) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = 30 * time.Second

	if allProxy != "" {
		if dial := createSOCKS5DialContextFunc(allProxy); dial != nil {
			transport.DialContext = dial
			slog.Info("Upstream traffic tunnelled through SOCKS5 proxy")
		}
	}
	return transport
}

// createSOCKS5DialContextFunc creates a dial function for SSH+SOCKS5 proxy connections.
// Supports format: ssh+socks5://user@host:port?private-key=/path/to/key
func createSOCKS5DialContextFunc(allProxy string) func(ctx context.Context, network, address string) (net.Conn, error) {
	allProxy = strings.TrimPrefix(allProxy, "ssh+")

	proxyURL, err := url.Parse(allProxy)
	if err != nil {
		slog.Error("Failed to parse EKA_ALL_PROXY URL", "error", err)
		return nil
	}

	keyPath := proxyURL.Query().Get("private-key")
	if keyPath == "" {
		slog.Error("EKA_ALL_PROXY missing required 'private-key' query param")
		return nil
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		slog.Error("Failed to read SSH private key", "path", keyPath, "error", err)
		return nil
	}

	username := ""
	if proxyURL.User != nil {
		username = proxyURL.User.Username()
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.Mutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.Lock()
		if dialer == nil {
			d, err := socks5Proxy.Dialer(username, string(key), proxyURL.Host)
			if err != nil {
				mut.Unlock()
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = d
		}
		dial := dialer
		mut.Unlock()

		return dial(network, address)
	}
}
