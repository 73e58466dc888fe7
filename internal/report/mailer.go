package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/campaign-intelligence/internal/config"
	"github.com/ignite/campaign-intelligence/internal/pkg/awsutil"
	"github.com/ignite/campaign-intelligence/internal/pkg/logger"
)

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// ErrNoRecipients is returned when a digest has nobody to go to.
var ErrNoRecipients = errors.New("report: no recipients configured")

// SESMailer sends HTML digests through SES v2.
type SESMailer struct {
	client sesAPI
	from   string
}

// NewSESMailer builds the SES client from report config. Static keys are
// used when both are set; otherwise the default credential chain applies.
func NewSESMailer(ctx context.Context, cfg config.ReportConfig) (*SESMailer, error) {
	awsCfg, err := awsutil.LoadConfig(ctx, awsutil.Options{
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return &SESMailer{client: sesv2.NewFromConfig(awsCfg), from: cfg.FromAddress}, nil
}

// Send delivers one message to all recipients and returns the SES message id.
func (m *SESMailer) Send(ctx context.Context, to []string, subject, html string) (string, error) {
	if len(to) == 0 {
		return "", ErrNoRecipients
	}
	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("report"), Value: aws.String("weekly_digest")},
		},
	})
	if err != nil {
		return "", fmt.Errorf("sending digest: %w", err)
	}
	id := aws.ToString(out.MessageId)
	logger.Info("digest sent", "message_id", id, "recipients", len(to), "from_email", m.from)
	return id, nil
}
