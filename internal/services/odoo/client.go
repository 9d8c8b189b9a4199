package odoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/rpc"
	"sync"

	"github.com/kolo/xmlrpc"
)

// Config holds Odoo connection settings
type Config struct {
	URL      string
	Database string
	Username string
	Password string
}

// Client represents an Odoo XML-RPC client
type Client struct {
	URL       string
	Database  string
	Username  string
	Password  string
	CommonURL string
	ObjectURL string

	mu  sync.Mutex
	uid int
}

// NewClient creates a new Odoo client
func NewClient(cfg Config) *Client {
	return &Client{
		URL:       cfg.URL,
		Database:  cfg.Database,
		Username:  cfg.Username,
		Password:  cfg.Password,
		CommonURL: fmt.Sprintf("%s/xmlrpc/2/common", cfg.URL),
		ObjectURL: fmt.Sprintf("%s/xmlrpc/2/object", cfg.URL),
	}
}

// call runs one XML-RPC call, giving up when ctx is done
func call(ctx context.Context, url, method string, args, reply interface{}) error {
	client, err := xmlrpc.NewClient(url, nil)
	if err != nil {
		return fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()

	pending := client.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case done := <-pending.Done:
		return done.Error
	}
}

// Authenticate authenticates with Odoo and returns the user ID
func (c *Client) Authenticate(ctx context.Context) (int, error) {
	args := []interface{}{c.Database, c.Username, c.Password, make([]interface{}, 0)}
	var uid int
	if err := call(ctx, c.CommonURL, "authenticate", args, &uid); err != nil {
		return 0, fmt.Errorf("authentication failed: %w", err)
	}
	if uid == 0 {
		return 0, fmt.Errorf("authentication failed: invalid credentials for %s", c.Username)
	}

	c.mu.Lock()
	c.uid = uid
	c.mu.Unlock()
	return uid, nil
}

// session returns the authenticated user ID, logging in on first use
func (c *Client) session(ctx context.Context) (int, error) {
	c.mu.Lock()
	uid := c.uid
	c.mu.Unlock()
	if uid != 0 {
		return uid, nil
	}
	return c.Authenticate(ctx)
}

// Execute calls method on model through execute_kw
func (c *Client) Execute(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}, reply interface{}) error {
	uid, err := c.session(ctx)
	if err != nil {
		return err
	}

	params := []interface{}{c.Database, uid, c.Password, model, method, args}
	if kwargs != nil {
		params = append(params, kwargs)
	}
	if err := call(ctx, c.ObjectURL, "execute_kw", params, reply); err != nil {
		return fmt.Errorf("failed to execute %s.%s: %w", model, method, err)
	}
	return nil
}

// SearchRead performs a generic search_read operation.
// result is a pointer to a slice of structs that decode from the
// record JSON; a limit of 0 reads everything.
func (c *Client) SearchRead(ctx context.Context, model string, domain []interface{}, fields []string, limit, offset int, result interface{}) error {
	var raw []map[string]interface{}
	kwargs := map[string]interface{}{
		"fields": fields,
		"limit":  limit,
		"offset": offset,
	}
	if err := c.Execute(ctx, model, "search_read", []interface{}{domain}, kwargs, &raw); err != nil {
		return err
	}
	return decode(raw, result)
}

// Read reads records by IDs
func (c *Client) Read(ctx context.Context, model string, ids []int64, fields []string, result interface{}) error {
	var raw []map[string]interface{}
	kwargs := map[string]interface{}{"fields": fields}
	if err := c.Execute(ctx, model, "read", []interface{}{ids}, kwargs, &raw); err != nil {
		return err
	}
	return decode(raw, result)
}

// Create creates a new record
func (c *Client) Create(ctx context.Context, model string, values map[string]interface{}) (int64, error) {
	var id int64
	if err := c.Execute(ctx, model, "create", []interface{}{values}, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// CallMethod calls a custom method on an Odoo model and decodes its
// result into reply
func (c *Client) CallMethod(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}, reply interface{}) error {
	var raw interface{}
	if err := c.Execute(ctx, model, method, args, kwargs, &raw); err != nil {
		return err
	}
	return decode(raw, reply)
}

// decode converts XML-RPC values into typed records by way of JSON, so
// the models' JSON normalization applies to ERP payloads too
func decode(raw, result interface{}) error {
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal raw result: %w", err)
	}
	if err := json.Unmarshal(jsonData, result); err != nil {
		return fmt.Errorf("failed to unmarshal into target: %w", err)
	}
	return nil
}
