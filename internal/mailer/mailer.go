// Package mailer sends the post-signup welcome email through AWS SES v2.
// Sending is best-effort: the subscription is already persisted by the time
// the mailer runs, and a failed send is only logged.
package mailer

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/signalweekly/newsletter/internal/config"
	"github.com/signalweekly/newsletter/internal/domain"
	"github.com/signalweekly/newsletter/internal/pkg/logger"
)

// sesAPI is the slice of the SES v2 client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Mailer renders and sends welcome emails.
type Mailer struct {
	client    sesAPI
	templates *TemplateService
	fromName  string
	fromEmail string
}

// New creates an SES-backed mailer from static credentials.
func New(ctx context.Context, cfg appconfig.MailerConfig) (*Mailer, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Mailer{
		client:    sesv2.NewFromConfig(awsCfg),
		templates: NewTemplateService(),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}, nil
}

// SendWelcome renders the welcome template for the subscriber and sends it.
func (m *Mailer) SendWelcome(ctx context.Context, sub *domain.Subscriber) error {
	bindings := map[string]interface{}{
		"email":  sub.Email,
		"source": sub.Source,
	}

	subject, err := m.templates.Render(welcomeSubject, bindings)
	if err != nil {
		return fmt.Errorf("render subject: %w", err)
	}
	htmlBody, err := m.templates.Render(welcomeHTML, bindings)
	if err != nil {
		return fmt.Errorf("render body: %w", err)
	}
	textBody, err := m.templates.Render(welcomeText, bindings)
	if err != nil {
		return fmt.Errorf("render text body: %w", err)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{sub.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
					Text: &types.Content{Data: aws.String(textBody)},
				},
			},
		},
	}

	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	logger.Info("welcome email sent", "email", sub.Email)
	if out.MessageId != nil {
		log.Printf("[mailer] SES message id %s", *out.MessageId)
	}
	return nil
}
