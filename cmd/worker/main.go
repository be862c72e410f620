package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"attendance/internal/config"
	"attendance/internal/queue"
	"attendance/internal/store"
)

// Worker consumes attendance events from the queue and appends them to a
// line-oriented audit log. Run it with QUEUE_BACKEND=redis so it shares
// the API's queue; the memory backend only exists for single-process dev.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:events")
	} else {
		log.Println("warning: memory queue backend sees no API events across processes")
		q = queue.NewInMemory(64)
	}

	if dir := filepath.Dir(cfg.AuditLogPath); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	audit, err := os.OpenFile(cfg.AuditLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("open audit log: %v", err)
	}
	defer audit.Close()

	msgs, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume failed: %v", err)
	}

	log.Printf("audit worker started, writing %s", cfg.AuditLogPath)
	var processed int
	for msg := range msgs {
		var evt queue.AttendanceEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("skipping malformed %s event: %v", msg.Type, err)
			continue
		}
		line := fmt.Sprintf("%s %s id=%s student=%s status=%s\n",
			evt.At.Format(time.RFC3339), msg.Type, evt.ID, evt.Student, evt.Status)
		if _, err := audit.WriteString(line); err != nil {
			log.Printf("audit write failed: %v", err)
		}
		processed++
	}

	log.Printf("audit worker exiting, %d events processed", processed)
}
