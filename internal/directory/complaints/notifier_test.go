package complaints

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-directory/internal/models"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, input)
	return &ses.SendEmailOutput{}, f.err
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, input)
	return &sns.PublishOutput{}, f.err
}

func testComplaint() models.Complaint {
	return models.Complaint{
		ID:            "c-1",
		BusinessID:    "biz-1",
		ReporterName:  "Sara Ali",
		ReporterEmail: "sara@example.com",
		Subject:       "Passport held",
		Description:   "The agency kept my passport for three weeks.",
		Status:        models.ComplaintStatusSubmitted,
		CreatedAt:     "2026-02-14T09:30:00Z",
	}
}

func TestAWSNotifier_SendsEmailAndPublishes(t *testing.T) {
	mail := &fakeSES{}
	topic := &fakeSNS{}
	n := NewAWSNotifier(mail, "noreply@visa.example", "moderation@visa.example", topic, "arn:aws:sns:me-central-1:123456789012:complaints")

	require.NoError(t, n.Notify(context.Background(), testComplaint()))

	require.Len(t, mail.inputs, 1)
	assert.Equal(t, "noreply@visa.example", *mail.inputs[0].Source)
	assert.Equal(t, []string{"moderation@visa.example"}, mail.inputs[0].Destination.ToAddresses)
	assert.Contains(t, *mail.inputs[0].Message.Subject.Data, "biz-1")
	assert.Contains(t, *mail.inputs[0].Message.Body.Text.Data, "Complaint ID: c-1")

	require.Len(t, topic.inputs, 1)
	assert.Equal(t, eventComplaintFiled, *topic.inputs[0].MessageAttributes["eventType"].StringValue)

	var published models.Complaint
	require.NoError(t, json.Unmarshal([]byte(*topic.inputs[0].Message), &published))
	assert.Equal(t, testComplaint(), published)
}

func TestAWSNotifier_JoinsErrors(t *testing.T) {
	n := NewAWSNotifier(&fakeSES{err: errors.New("throttled")}, "a@b.c", "d@e.f", &fakeSNS{err: errors.New("no topic")}, "arn")

	err := n.Notify(context.Background(), testComplaint())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ses: throttled")
	assert.Contains(t, err.Error(), "sns: no topic")
}

func TestAWSNotifier_DisabledHalves(t *testing.T) {
	topic := &fakeSNS{}
	n := NewAWSNotifier(nil, "", "", topic, "arn")

	assert.NoError(t, n.Notify(context.Background(), testComplaint()))
	assert.Len(t, topic.inputs, 1)
}
