package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"eventnotifier/internal/domain"
)

// SNSAPI is the subset of *sns.Client used by the notifier.
type SNSAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes the notification text to a topic.
type SNSNotifier struct {
	client   SNSAPI
	topicARN string
	logger   *slog.Logger
}

// NewSNSNotifier returns an SNSNotifier for topicARN.
func NewSNSNotifier(client SNSAPI, topicARN string, logger *slog.Logger) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN, logger: logger}
}

func (n *SNSNotifier) Notify(ctx context.Context, msg domain.DispatchMessage) error {
	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(msg.Text()),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	n.logger.DebugContext(ctx, "notification published to SNS", "message_id", aws.ToString(out.MessageId), "user_id", msg.UserID)
	return nil
}
