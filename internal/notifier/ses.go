package notifier

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/markethall/storefront-api/internal/config"
)

// SESNotifier sends notification emails through Amazon SES.
type SESNotifier struct {
	client *ses.Client
	sender string
}

// NewSESNotifier builds the SES client once at startup.
func NewSESNotifier(ctx context.Context, cfg config.EmailConfig) (*SESNotifier, error) {
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("sender email address is not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	return &SESNotifier{
		client: ses.NewFromConfig(awsCfg),
		sender: cfg.SenderEmail,
	}, nil
}

// Send renders the event and delivers it as an HTML+text email.
func (n *SESNotifier) Send(ctx context.Context, ev Event) error {
	if ev.Recipient == "" {
		return fmt.Errorf("notification recipient is empty")
	}

	msg, err := render(ev)
	if err != nil {
		return err
	}

	input := &ses.SendEmailInput{
		Source: aws.String(n.sender),
		Destination: &types.Destination{
			ToAddresses: []string{ev.Recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(msg.Subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(msg.HTML),
				},
				Text: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(msg.Text),
				},
			},
		},
	}

	if _, err := n.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send %s email: %w", ev.Type, err)
	}
	return nil
}
