package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"eventnotifier/internal/domain"
)

// SQSAPI is the subset of *sqs.Client used by the queue.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue publishes to and consumes from an SQS FIFO queue. The message group
// is the user id and the deduplication id is the message's DeduplicationID.
// A received message is deleted only after the handler returns nil; anything
// else is left for redelivery when the visibility timeout expires, and the
// queue's redrive policy decides when to give up.
type SQSQueue struct {
	client   SQSAPI
	queueURL string
	logger   *slog.Logger

	// WaitTimeSeconds is the long-poll duration (max 20).
	WaitTimeSeconds int32
	// ErrorBackoff is the pause after a failed ReceiveMessage.
	ErrorBackoff time.Duration
}

// NewSQSQueue returns an SQSQueue for queueURL.
func NewSQSQueue(client SQSAPI, queueURL string, logger *slog.Logger) *SQSQueue {
	return &SQSQueue{
		client:          client,
		queueURL:        queueURL,
		logger:          logger,
		WaitTimeSeconds: 20,
		ErrorBackoff:    time.Second,
	}
}

func (q *SQSQueue) Publish(ctx context.Context, msg domain.DispatchMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	out, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               aws.String(q.queueURL),
		MessageBody:            aws.String(string(body)),
		MessageGroupId:         aws.String(msg.PartitionKey()),
		MessageDeduplicationId: aws.String(msg.DeduplicationID()),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}
	q.logger.DebugContext(ctx, "message sent to SQS", "message_id", aws.ToString(out.MessageId), "user_id", msg.UserID)
	return nil
}

// Consume long-polls the queue until ctx is done.
func (q *SQSQueue) Consume(ctx context.Context, handle domain.MessageHandler) error {
	for ctx.Err() == nil {
		out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(q.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     q.WaitTimeSeconds,
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			q.logger.ErrorContext(ctx, "failed to receive from SQS", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(q.ErrorBackoff):
			}
			continue
		}
		// Messages of one group arrive in order; handle the batch sequentially.
		for _, m := range out.Messages {
			q.handle(ctx, m, handle)
		}
	}
	return nil
}

func (q *SQSQueue) handle(ctx context.Context, m types.Message, handle domain.MessageHandler) {
	var msg domain.DispatchMessage
	if err := json.Unmarshal([]byte(aws.ToString(m.Body)), &msg); err != nil {
		q.logger.WarnContext(ctx, "undecodable message left for redrive", "message_id", aws.ToString(m.MessageId), "err", err)
		return
	}
	if err := handle(ctx, msg); err != nil {
		q.logger.ErrorContext(ctx, "message handling failed, leaving for redelivery",
			"message_id", aws.ToString(m.MessageId),
			"user_id", msg.UserID,
			"err", err,
		)
		return
	}
	if _, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: m.ReceiptHandle,
	}); err != nil {
		// Redelivery is harmless: the ledger suppresses the duplicate.
		q.logger.WarnContext(ctx, "failed to delete handled message", "message_id", aws.ToString(m.MessageId), "err", err)
	}
}
