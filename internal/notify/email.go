package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"ecoride/internal/modules/ride"
	"ecoride/internal/types"
)

// EmailSender sends a plain-text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SESV2Sender implements EmailSender using AWS SES v2. Credentials load from
// the environment.
type SESV2Sender struct {
	client    *sesv2.Client
	fromEmail string
}

func NewSESV2Sender(ctx context.Context, region, fromEmail string) (*SESV2Sender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESV2Sender{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
	}, nil
}

func (s *SESV2Sender) SendEmail(ctx context.Context, to, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: &s.fromEmail,
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &sestypes.Body{
					Text: &sestypes.Content{
						Data:    aws.String(body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}
	_, err := s.client.SendEmail(ctx, input)
	return err
}

// EmailResolver maps a user ID to an email address.
type EmailResolver func(ctx context.Context, userID types.ID) (string, error)

// StaticDomainResolver addresses riders as <user id>@<domain>. Deployments
// with a real user directory plug in their own resolver.
func StaticDomainResolver(domain string) EmailResolver {
	return func(ctx context.Context, userID types.ID) (string, error) {
		if userID == "" {
			return "", fmt.Errorf("empty user id")
		}
		return fmt.Sprintf("%s@%s", userID, domain), nil
	}
}

// EmailNotifier emails riders on booking and on terminal transitions. Delivery
// is best-effort; failures are logged and never surface to the caller.
type EmailNotifier struct {
	Sender  EmailSender
	Resolve EmailResolver
	Log     *slog.Logger
}

func (n EmailNotifier) logger() *slog.Logger {
	if n.Log != nil {
		return n.Log
	}
	return slog.Default()
}

func (n EmailNotifier) RideCreated(ctx context.Context, r *ride.Ride) {
	subject := "Your EcoRide booking is confirmed"
	body := fmt.Sprintf(
		"Ride %s is booked.\n\nFrom: %s\nTo: %s\nVehicle: %s\nFare: %.2f\nEstimated duration: %d minutes\n",
		r.ID, r.PickupAddress, r.DropoffAddress, r.VehicleClass, r.Price, r.DurationMinutes,
	)
	n.send(ctx, r, subject, body)
}

func (n EmailNotifier) StatusChanged(ctx context.Context, r *ride.Ride, from ride.Status) {
	var subject, body string
	switch r.Status {
	case ride.StatusCompleted:
		subject = "Your EcoRide trip is complete"
		body = fmt.Sprintf(
			"Ride %s is complete.\n\nFare: %.2f\nDistance: %.1f km\nCarbon footprint: %d g CO2\n",
			r.ID, r.Price, r.DistanceKm, r.CarbonGrams,
		)
	case ride.StatusCancelled:
		subject = "Your EcoRide booking was cancelled"
		body = fmt.Sprintf("Ride %s has been cancelled. You have not been charged.\n", r.ID)
	default:
		return
	}
	n.send(ctx, r, subject, body)
}

func (n EmailNotifier) send(ctx context.Context, r *ride.Ride, subject, body string) {
	to, err := n.Resolve(ctx, r.UserID)
	if err != nil {
		n.logger().Warn("resolve rider email", "ride_id", r.ID, "user_id", r.UserID, "error", err)
		return
	}
	if err := n.Sender.SendEmail(ctx, to, subject, body); err != nil {
		n.logger().Warn("send ride email", "ride_id", r.ID, "error", err)
	}
}
