package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// replay отправляет сохранённые payload'ы вебхуков на шлюз: прогон
// исторических сигналов через свежую версию пайплайна.
func main() {
	viper.SetDefault("url", "http://localhost:8080/webhook")
	viper.SetDefault("dir", "payloads")
	viper.SetDefault("delay", "200ms")
	viper.SetEnvPrefix("replay")
	viper.AutomaticEnv()

	url := viper.GetString("url")
	dir := viper.GetString("dir")
	secret := viper.GetString("secret")
	delay := viper.GetDuration("delay")

	files, err := listPayloads(dir)
	if err != nil {
		log.Fatal(err)
	}
	if len(files) == 0 {
		log.Fatalf("no payload files in %s", dir)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	sent, failed := 0, 0
	for _, file := range files {
		if err := send(client, url, secret, file); err != nil {
			failed++
			log.Printf("FAIL %s: %v", file, err)
		} else {
			sent++
			log.Printf("OK   %s", file)
		}
		time.Sleep(delay)
	}
	log.Printf("done: sent=%d failed=%d", sent, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func listPayloads(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read payload dir")
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func send(client *http.Client, url, secret, file string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "read payload")
	}
	// валидность JSON проверяем до отправки, мусор лучше ловить локально
	var probe map[string]any
	if err := sonic.Unmarshal(raw, &probe); err != nil {
		return errors.Wrap(err, "payload is not a json object")
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(raw)
		req.Header.Set("X-Webhook-Signature", hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post")
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
