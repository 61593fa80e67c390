package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/reminder"
)

// LogNotifier writes due reminders to the log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, r reminder.Reminder) error {
	n.log.Info("reminder due",
		zap.String("reminderId", r.ID),
		zap.String("title", r.Title),
		zap.String("priority", string(r.Priority)),
		zap.Time("dateTime", r.DateTime),
		zap.String("url", r.URL))
	return nil
}

// SNSPublisher is the subset of the SNS client used here.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes due reminders to an SNS topic.
type SNSNotifier struct {
	client   SNSPublisher
	topicARN string
}

// NewSNSNotifier loads the default AWS configuration for region.
func NewSNSNotifier(ctx context.Context, region, topicARN string) (*SNSNotifier, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSNotifierWithClient(sns.NewFromConfig(cfg), topicARN), nil
}

func NewSNSNotifierWithClient(client SNSPublisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// snsSubjectMax is the SNS limit on subject length.
const snsSubjectMax = 100

func (n *SNSNotifier) Notify(ctx context.Context, r reminder.Reminder) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	subject := []rune(r.Title)
	if len(subject) > snsSubjectMax {
		subject = subject[:snsSubjectMax]
	}
	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(string(subject)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"priority": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(r.Priority)),
			},
			"reminderId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(r.ID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// Notifiers fans a notification out to every notifier.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, r reminder.Reminder) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
