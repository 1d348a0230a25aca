package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type tokens struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
}

type client struct {
	base string
	http *http.Client
}

func main() {
	base := envOr("BACKOFFICE_SMOKE_URL", "http://localhost:8080")
	username := envOr("BACKOFFICE_SMOKE_USERNAME", "admin")
	password := os.Getenv("BACKOFFICE_SMOKE_PASSWORD")
	if password == "" {
		log.Fatal("BACKOFFICE_SMOKE_PASSWORD is required")
	}

	c := &client{base: base, http: &http.Client{Timeout: 5 * time.Second}}

	var login tokens
	if err := c.call(http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &login); err != nil {
		log.Fatalf("login: %v", err)
	}

	var refreshed tokens
	if err := c.call(http.MethodPost, "/auth/refresh", "", map[string]string{
		"refreshToken": login.RefreshToken,
	}, &refreshed); err != nil {
		log.Fatalf("refresh: %v", err)
	}

	var me struct {
		Username string `json:"username"`
	}
	if err := c.call(http.MethodGet, "/auth/me", refreshed.Token, nil, &me); err != nil {
		log.Fatalf("me: %v", err)
	}
	if me.Username != username {
		log.Fatalf("me returned %q, want %q", me.Username, username)
	}

	var pos struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	name := fmt.Sprintf("smoke-%d", time.Now().UnixNano())
	if err := c.call(http.MethodPost, "/positions", refreshed.Token, map[string]string{"name": name}, &pos); err != nil {
		log.Fatalf("create position: %v", err)
	}
	if err := c.call(http.MethodDelete, "/positions/"+strconv.FormatInt(pos.ID, 10), refreshed.Token, nil, nil); err != nil {
		log.Fatalf("delete position: %v", err)
	}

	if addr := os.Getenv("BACKOFFICE_SMOKE_GRPC_ADDR"); addr != "" {
		if err := checkGRPC(addr); err != nil {
			log.Fatalf("grpc health: %v", err)
		}
	}

	fmt.Printf("backoffice smoke test passed: user=%s position=%d\n", me.Username, pos.ID)
}

func (c *client) call(method, path, token string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func checkGRPC(addr string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("status %s", resp.GetStatus())
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
