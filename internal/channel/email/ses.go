package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESProvider sends email through AWS SES v2.
type SESProvider struct {
	client *sesv2.Client
	region string
}

// NewSESProvider loads the default AWS credential chain for region. A
// provider that failed to load reports IsConfigured false.
func NewSESProvider(ctx context.Context, region string) *SESProvider {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		slog.Warn("failed to load AWS config, SES provider unavailable", "err", err)
		return &SESProvider{region: region}
	}
	slog.Info("SES email provider initialized", "region", region)
	return &SESProvider{client: sesv2.NewFromConfig(cfg), region: region}
}

func (p *SESProvider) Name() string { return "ses" }

func (p *SESProvider) IsConfigured() bool { return p.client != nil }

func (p *SESProvider) Send(ctx context.Context, req *Request) error {
	if p.client == nil {
		return errors.New("SES client not initialized")
	}
	if len(req.To) == 0 {
		return errors.New("no recipients specified")
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: &req.From,
		Destination:      &types.Destination{ToAddresses: req.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &req.Subject},
				Body:    &types.Body{Text: &types.Content{Data: &req.Body}},
			},
		},
	}
	out, err := p.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("SES send failed: %w", err)
	}
	if out.MessageId != nil {
		slog.Debug("email sent via SES", "message_id", *out.MessageId, "to", req.To)
	}
	return nil
}
