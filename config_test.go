package main

import (
	"testing"
)

func TestConfigValidate(t *testing.T) {
	cases := map[string]struct {
		cfg     Config
		wantErr bool
	}{
		"defaults":      {Config{port: 8080}, false},
		"port too low":  {Config{port: 0}, true},
		"port too high": {Config{port: 65536}, true},
		"tls pair":      {Config{port: 8080, tlsCert: "cert.pem", tlsKey: "key.pem"}, false},
		"cert only":     {Config{port: 8080, tlsCert: "cert.pem"}, true},
		"key only":      {Config{port: 8080, tlsKey: "key.pem"}, true},
	}

	for name, tc := range cases {
		err := tc.cfg.validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: validate() = %v, wantErr %v", name, err, tc.wantErr)
		}
	}
}

func TestConfigScheme(t *testing.T) {
	plain := Config{port: 8080}
	if got := plain.scheme(); got != "http" {
		t.Errorf("scheme without tls = %q, want http", got)
	}

	tls := Config{port: 8080, tlsCert: "cert.pem", tlsKey: "key.pem"}
	if got := tls.scheme(); got != "https" {
		t.Errorf("scheme with tls = %q, want https", got)
	}
}
