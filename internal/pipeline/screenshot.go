// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScreenshotQueue enqueues landing-page screenshot jobs to Redis as
// Celery-compatible tasks. Queueing makes the job durable: a worker outage
// delays the screenshot instead of losing it, which best-effort HTTP
// fire-and-forget cannot guarantee. The enqueue itself is still not awaited
// by the request path — callers log failures and move on.
type ScreenshotQueue struct {
	rdb       *redis.Client
	queueName string
}

// NewScreenshotQueue creates a publisher targeting the screenshots queue.
func NewScreenshotQueue(rdb *redis.Client, queueName string) *ScreenshotQueue {
	return &ScreenshotQueue{
		rdb:       rdb,
		queueName: queueName,
	}
}

const screenshotTaskName = "pipelines.tasks.capture_screenshot"

// screenshotJob is the task argument the capture worker consumes.
type screenshotJob struct {
	CaseID string `json:"caseId"`
	URL    string `json:"url"`
}

// celeryTask represents a Celery-compatible task message.
// The screenshot worker reads tasks from Redis using this exact JSON structure.
type celeryTask struct {
	ID      string        `json:"id"`
	Task    string        `json:"task"`
	Args    []interface{} `json:"args"`
	Kwargs  interface{}   `json:"kwargs"`
	Retries int           `json:"retries"`
	ETA     *string       `json:"eta"`
}

// celeryMessage wraps a task for Redis transport.
type celeryMessage struct {
	Body            string                 `json:"body"`
	ContentEncoding string                 `json:"content-encoding"`
	ContentType     string                 `json:"content-type"`
	Headers         map[string]interface{} `json:"headers"`
	Properties      map[string]interface{} `json:"properties"`
}

// Enqueue publishes a screenshot job for an ingested case's landing URL.
func (q *ScreenshotQueue) Enqueue(ctx context.Context, caseID, url string) error {
	jobJSON, err := json.Marshal(screenshotJob{CaseID: caseID, URL: url})
	if err != nil {
		return fmt.Errorf("marshal screenshot job: %w", err)
	}

	taskID := uuid.New().String()

	task := celeryTask{
		ID:     taskID,
		Task:   screenshotTaskName,
		Args:   []interface{}{string(jobJSON)},
		Kwargs: map[string]interface{}{},
	}

	taskBody, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal celery task: %w", err)
	}

	msg := celeryMessage{
		Body:            string(taskBody),
		ContentEncoding: "utf-8",
		ContentType:     "application/json",
		Headers: map[string]interface{}{
			"lang":    "py",
			"task":    screenshotTaskName,
			"id":      taskID,
			"retries": 0,
		},
		Properties: map[string]interface{}{
			"correlation_id": taskID,
			"delivery_mode":  2,
			"delivery_tag":   taskID,
			"body_encoding":  "utf-8",
			"exchange":       q.queueName,
			"routing_key":    q.queueName,
			"delivery_info": map[string]string{
				"exchange":    q.queueName,
				"routing_key": q.queueName,
			},
		},
	}

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal celery message: %w", err)
	}

	if err := q.rdb.LPush(ctx, q.queueName, string(msgJSON)).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Info("enqueued screenshot job",
		"task_id", taskID,
		"case_id", caseID,
		"queue", q.queueName,
	)

	return nil
}

// Ping checks the Redis connection.
func (q *ScreenshotQueue) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return q.rdb.Ping(ctx).Err()
}
