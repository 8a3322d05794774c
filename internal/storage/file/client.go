// Package file — SessionStore для gatectl: сессия лежит в TOML-файле пользователя
// (аналог localStorage браузера). Каждый вызов читает файл заново, состояние в памяти не держим.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

type document struct {
	Session map[string]string `toml:"session"`
}

type Client struct {
	mu   sync.Mutex
	path string
}

// New создаёт хранилище; каталог файла создаётся с правами 0700.
func New(path string) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("session dir: %w", err)
	}
	return &Client{path: path}, nil
}

// DefaultPath — ~/.config/gatectl/session.toml (или $XDG_CONFIG_HOME/gatectl/session.toml).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gatectl", "session.toml"), nil
}

// Path возвращает путь к файлу сессии.
func (c *Client) Path() string { return c.path }

func (c *Client) Close() error { return nil }

func (c *Client) load() (document, error) {
	var doc document
	if _, err := toml.DecodeFile(c.path, &doc); err != nil {
		if os.IsNotExist(err) {
			return document{Session: map[string]string{}}, nil
		}
		return document{}, fmt.Errorf("read %s: %w", c.path, err)
	}
	if doc.Session == nil {
		doc.Session = map[string]string{}
	}
	return doc, nil
}

// save пишет во временный файл и переименовывает, поэтому файл не остаётся полузаписанным.
func (c *Client) save(doc document) error {
	tmp := c.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, c.path)
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, err := c.load()
	if err != nil {
		return "", err
	}
	return doc.Session[key], nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, err := c.load()
	if err != nil {
		return err
	}
	doc.Session[key] = value
	return c.save(doc)
}

// Remove не создаёт файл, если его ещё нет.
func (c *Client) Remove(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, err := c.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := doc.Session[k]; ok {
			delete(doc.Session, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return c.save(doc)
}
