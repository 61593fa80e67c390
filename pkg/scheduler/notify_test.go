package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/reminder"
)

type fakePublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestSNSNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := NewSNSNotifierWithClient(pub, "arn:aws:sns:us-east-1:123456789012:reminders")

	r := reminder.Reminder{ID: "r1", Title: strings.Repeat("x", 150), Priority: reminder.PriorityHigh}
	require.NoError(t, n.Notify(context.Background(), r))

	require.Len(t, pub.inputs, 1)
	in := pub.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:reminders", aws.ToString(in.TopicArn))
	assert.Len(t, aws.ToString(in.Subject), snsSubjectMax)
	assert.Equal(t, "high", aws.ToString(in.MessageAttributes["priority"].StringValue))

	var body reminder.Reminder
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &body))
	assert.Equal(t, "r1", body.ID)

	pub.err = errors.New("throttled")
	assert.Error(t, n.Notify(context.Background(), r))
}

func TestNotifiersJoinErrors(t *testing.T) {
	ok := &recorder{}
	failing := NewSNSNotifierWithClient(&fakePublisher{err: errors.New("down")}, "arn")
	err := Notifiers{ok, failing, NewLogNotifier(nil)}.Notify(context.Background(), reminder.Reminder{ID: "r1", Title: "t"})
	assert.Error(t, err)
	assert.Equal(t, 1, ok.count())
}
