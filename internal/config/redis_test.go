package config

import "testing"

func TestRedisOptionsHostPort(t *testing.T) {
	cfg := &Config{RedisURL: "localhost:6379", RedisPassword: "secret", RedisDB: 3}

	opts, err := RedisOptions(cfg)
	if err != nil {
		t.Fatalf("RedisOptions: %v", err)
	}
	if opts.Addr != "localhost:6379" {
		t.Errorf("addr = %q", opts.Addr)
	}
	if opts.Password != "secret" || opts.DB != 3 {
		t.Errorf("password/db not carried over: %q / %d", opts.Password, opts.DB)
	}
}

func TestRedisOptionsURL(t *testing.T) {
	cfg := &Config{RedisURL: "redis://:hunter2@redis.example.com:6380/2"}

	opts, err := RedisOptions(cfg)
	if err != nil {
		t.Fatalf("RedisOptions: %v", err)
	}
	if opts.Addr != "redis.example.com:6380" {
		t.Errorf("addr = %q", opts.Addr)
	}
	if opts.Password != "hunter2" {
		t.Errorf("password = %q", opts.Password)
	}
	if opts.DB != 2 {
		t.Errorf("db = %d", opts.DB)
	}
}

func TestRedisOptionsTLSURL(t *testing.T) {
	cfg := &Config{RedisURL: "rediss://managed.example.com:6379"}

	opts, err := RedisOptions(cfg)
	if err != nil {
		t.Fatalf("RedisOptions: %v", err)
	}
	if opts.TLSConfig == nil {
		t.Error("rediss scheme must enable TLS")
	}
}

func TestRedisOptionsBadURL(t *testing.T) {
	cfg := &Config{RedisURL: "redis://bad url with spaces"}

	if _, err := RedisOptions(cfg); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}
