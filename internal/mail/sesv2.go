package mail

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESClient sends mail through Amazon SESv2.
type SESClient struct {
	ses  *sesv2.Client
	from string
}

// NewSESClient builds an SES client for the given region. When accessKey and
// secretKey are set they are used as static credentials, otherwise the default
// AWS credential chain applies.
func NewSESClient(ctx context.Context, region, from, accessKey, secretKey string) (*SESClient, error) {
	if from == "" {
		return nil, errors.New("mail: from address is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &SESClient{ses: sesv2.NewFromConfig(cfg), from: from}, nil
}

// SendHTML sends a single HTML message to the recipients.
func (c *SESClient) SendHTML(ctx context.Context, to []string, subject, htmlBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(c.from),
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
				},
			},
		},
	}
	_, err := c.ses.SendEmail(ctx, input)
	return err
}
