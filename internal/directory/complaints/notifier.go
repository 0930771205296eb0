// internal/directory/complaints/notifier.go
package complaints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	awsclient "visa-directory/internal/common/aws"
	"visa-directory/internal/models"
)

const eventComplaintFiled = "complaint.filed"

type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// AWSNotifier emails the moderation inbox and publishes to an SNS topic. Either half may
// be disabled by leaving its client nil.
type AWSNotifier struct {
	email     EmailSender
	from      string
	to        string
	publisher Publisher
	topicARN  string
}

func NewAWSNotifier(email EmailSender, from, to string, publisher Publisher, topicARN string) *AWSNotifier {
	return &AWSNotifier{
		email:     email,
		from:      from,
		to:        to,
		publisher: publisher,
		topicARN:  topicARN,
	}
}

func (n *AWSNotifier) Notify(ctx context.Context, c models.Complaint) error {
	var errs []error

	if n.email != nil && n.to != "" {
		subject := fmt.Sprintf("New complaint for business %s: %s", c.BusinessID, c.Subject)
		if _, err := n.email.SendEmail(ctx, awsclient.PlainTextEmail(n.from, n.to, subject, emailBody(c))); err != nil {
			errs = append(errs, fmt.Errorf("ses: %w", err))
		}
	}

	if n.publisher != nil && n.topicARN != "" {
		payload, err := json.Marshal(c)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode complaint: %w", err))
		} else if _, err := n.publisher.Publish(ctx, awsclient.TopicMessage(n.topicARN, "Complaint filed", string(payload), eventComplaintFiled)); err != nil {
			errs = append(errs, fmt.Errorf("sns: %w", err))
		}
	}

	return errors.Join(errs...)
}

func emailBody(c models.Complaint) string {
	return fmt.Sprintf(`A complaint was filed against business %s.

Complaint ID: %s
Reporter: %s <%s>
Filed at: %s
Subject: %s

%s
`, c.BusinessID, c.ID, c.ReporterName, c.ReporterEmail, c.CreatedAt, c.Subject, c.Description)
}
