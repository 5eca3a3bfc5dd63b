// Package ses delivers plain-text outreach mail through Amazon SES v2.
package ses

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/campus-outreach/internal/config"
	"github.com/ignite/campus-outreach/internal/pkg/logger"
)

// SendAPI is the subset of the SES v2 client used here.
type SendAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Options configures a Sender.
type Options struct {
	From             string
	ReplyTo          string
	ConfigurationSet string
	Timeout          time.Duration
}

// Sender sends one message per call.
type Sender struct {
	client SendAPI
	opts   Options
	log    *logger.Logger
}

// NewSender wraps an existing client.
func NewSender(client SendAPI, opts Options, log *logger.Logger) *Sender {
	if log == nil {
		log = logger.Default()
	}
	return &Sender{client: client, opts: opts, log: log}
}

// New builds a Sender from configuration. Static keys are used when both are
// set, otherwise the default credential chain.
func New(ctx context.Context, cfg config.SESConfig, email config.EmailConfig, log *logger.Logger) (*Sender, error) {
	if email.From == "" {
		return nil, config.ErrMissingSender
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewSender(sesv2.NewFromConfig(awsCfg), Options{
		From:             email.From,
		ReplyTo:          email.ReplyTo,
		ConfigurationSet: cfg.ConfigurationSet,
		Timeout:          cfg.Timeout(),
	}, log), nil
}

// Send delivers a plain-text message to a single recipient.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if s.opts.From == "" {
		return config.ErrMissingSender
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.opts.From),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if s.opts.ReplyTo != "" {
		input.ReplyToAddresses = []string{s.opts.ReplyTo}
	}
	if s.opts.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.opts.ConfigurationSet)
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.log.Error("ses send failed", "email", to, "error", err)
		return fmt.Errorf("ses send: %w", err)
	}
	s.log.Info("ses sent", "email", to, "subject", subject, "message_id", aws.ToString(out.MessageId))
	return nil
}

// Message is a delivery recorded by DryRunSender.
type Message struct {
	To      string
	Subject string
	Body    string
}

// DryRunSender logs instead of sending and keeps what it would have sent.
type DryRunSender struct {
	log *logger.Logger

	mu   sync.Mutex
	sent []Message
}

// NewDryRunSender returns a sender that never leaves the process.
func NewDryRunSender(log *logger.Logger) *DryRunSender {
	if log == nil {
		log = logger.Default()
	}
	return &DryRunSender{log: log}
}

func (d *DryRunSender) Send(_ context.Context, to, subject, body string) error {
	d.mu.Lock()
	d.sent = append(d.sent, Message{To: to, Subject: subject, Body: body})
	d.mu.Unlock()
	d.log.Info("dry run: not sending", "email", to, "subject", subject)
	return nil
}

// Sent returns a copy of the recorded messages.
func (d *DryRunSender) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Message(nil), d.sent...)
}
