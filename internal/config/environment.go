package config

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// Store is the persistence side of ExternalData: named load/save for
// read-filters, entry-to-msg-maps, and config templates. internal/persist/pg
// and internal/persist/redisstore both satisfy it.
type Store interface {
	LoadReadFilter(name string) ([]byte, bool, error)
	SaveReadFilter(name string, data []byte) error
	LoadMsgMap(name string) ([]byte, bool, error)
	SaveMsgMap(name string, data []byte) error
	LoadTemplate(name string) ([]byte, error)
}

// Credentials is the secret-lookup side of ExternalData. *VaultCredentials
// satisfies it.
type Credentials interface {
	TwitterBearerToken() (string, error)
	TelegramBotToken() (string, error)
	IMAPPassword(account string) (string, error)
	GoogleOAuth2(handle string) (clientID, clientSecret, refreshToken string, err error)
}

// Environment composes Credentials and Store into the full ExternalData
// capability BuildJob decodes against, and memoizes one JetStream
// connection per NATS URL so every eventbus sink in a job shares a
// connection instead of dialing its own.
//
// The connect options and drain-on-close shutdown are grounded on
// go-core/natsclient.Client: RetryOnFailedConnect/MaxReconnects(-1) so
// a sink doesn't fail a whole job build over a momentary NATS outage,
// and Drain (not Close) so in-flight publishes land before the
// connection goes away.
type Environment struct {
	Credentials
	Store

	mu    sync.Mutex
	conns map[string]*nats.Conn
	js    map[string]nats.JetStreamContext
}

// NewEnvironment wires a credential source and a persistence store
// into one ExternalData implementation.
func NewEnvironment(creds Credentials, store Store) *Environment {
	return &Environment{
		Credentials: creds,
		Store:       store,
		conns:       make(map[string]*nats.Conn),
		js:          make(map[string]nats.JetStreamContext),
	}
}

// JetStream returns a memoized JetStream context for url, connecting
// on first use.
func (e *Environment) JetStream(url string) (nats.JetStreamContext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if js, ok := e.js[url]; ok {
		return js, nil
	}

	nc, err := nats.Connect(url, nats.RetryOnFailedConnect(true), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("environment: connect to nats %s: %w", url, err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("environment: jetstream context: %w", err)
	}
	e.conns[url] = nc
	e.js[url] = js
	return js, nil
}

// Close drains every NATS connection this environment opened, letting
// in-flight eventbus publishes land before the process exits.
func (e *Environment) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, nc := range e.conns {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
}
