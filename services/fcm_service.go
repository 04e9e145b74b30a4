package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// NotificationService writes in-app notifications and, when Firebase is
// configured, mirrors them as push messages to the recipient's device.
// Delivery is strictly best effort: a failed notification never fails
// the operation that triggered it.
type NotificationService struct {
	Store  store.Store
	client *messaging.Client
}

// NewNotificationService initializes the Firebase Admin SDK from the
// service account key at credentialsFile. Push delivery degrades to
// in-app only when the key is missing or invalid.
func NewNotificationService(st store.Store, credentialsFile string) (*NotificationService, error) {
	service := &NotificationService{Store: st}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("Firebase app not initialized: %v (push delivery disabled)", err)
		return service, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("Firebase messaging client not initialized: %v (push delivery disabled)", err)
		return service, nil
	}

	service.client = client
	log.Println("Notification service: Firebase messaging initialized")

	return service, nil
}

// Notify records an in-app notification for userEmail and pushes it to
// their registered device if one exists. All failures are logged and
// swallowed.
func (s *NotificationService) Notify(ctx context.Context, userEmail, projectID, title, body string) {
	n := db.Notification{
		ProjectID: projectID,
		UserEmail: userEmail,
		Title:     title,
		Body:      body,
		Read:      false,
	}
	if _, err := s.Store.Create(ctx, db.KindNotification, n.Fields()); err != nil {
		log.Printf("Failed to record notification for %s: %v", userEmail, err)
	}

	if s.client == nil {
		return
	}

	recs, err := s.Store.Filter(ctx, db.KindUser, map[string]any{"email": userEmail})
	if err != nil || len(recs) == 0 {
		return
	}
	user := db.UserFromRecord(recs[0])
	if user.FCMToken == "" {
		return
	}

	message := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"project_id": projectID,
			"type":       "project_update",
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Icon:         "ic_notification",
				Sound:        "default",
				ChannelID:    "high_importance_channel",
				DefaultSound: true,
			},
		},
	}

	response, err := s.client.Send(ctx, message)
	if err != nil {
		log.Printf("Error sending push notification to %s: %v", userEmail, err)
		return
	}
	log.Printf("Push notification sent to %s: %s", userEmail, response)
}

// ListNotifications returns the caller's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, identity authz.Identity) ([]db.Notification, error) {
	if !identity.IsResolved() {
		return nil, authz.ErrUnauthenticated
	}
	recs, err := s.Store.Filter(ctx, db.KindNotification, map[string]any{"user_email": identity.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	out := make([]db.Notification, 0, len(recs))
	for _, r := range recs {
		out = append(out, db.NotificationFromRecord(r))
	}
	return out, nil
}

// MarkRead marks one of the caller's notifications as read. Marking
// someone else's notification is reported as not found rather than
// forbidden so ids cannot be probed.
func (s *NotificationService) MarkRead(ctx context.Context, identity authz.Identity, id string) (db.Notification, error) {
	if !identity.IsResolved() {
		return db.Notification{}, authz.ErrUnauthenticated
	}
	if id == "" {
		return db.Notification{}, fmt.Errorf("%w: notification id is required", authz.ErrValidation)
	}
	rec, err := store.Get(ctx, s.Store, db.KindNotification, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return db.Notification{}, fmt.Errorf("%w: notification %s", authz.ErrNotFound, id)
		}
		return db.Notification{}, fmt.Errorf("failed to load notification: %w", err)
	}
	n := db.NotificationFromRecord(rec)
	if n.UserEmail != identity.Email && !identity.IsAdmin() {
		return db.Notification{}, fmt.Errorf("%w: notification %s", authz.ErrNotFound, id)
	}

	updated, err := s.Store.Update(ctx, db.KindNotification, id, map[string]any{"read": true})
	if err != nil {
		return db.Notification{}, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return db.NotificationFromRecord(updated), nil
}

// RegisterDevice stores the caller's FCM device token on their user
// record so future notifications can be pushed.
func (s *NotificationService) RegisterDevice(ctx context.Context, identity authz.Identity, token string) error {
	if !identity.IsResolved() {
		return authz.ErrUnauthenticated
	}
	if token == "" {
		return fmt.Errorf("%w: device token is required", authz.ErrValidation)
	}
	recs, err := s.Store.Filter(ctx, db.KindUser, map[string]any{"email": identity.Email})
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if len(recs) == 0 {
		return fmt.Errorf("%w: user %s", authz.ErrNotFound, identity.Email)
	}
	if _, err := s.Store.Update(ctx, db.KindUser, recs[0].ID(), map[string]any{"fcm_token": token}); err != nil {
		return fmt.Errorf("failed to store device token: %w", err)
	}
	log.Printf("Registered device token for %s", identity.Email)
	return nil
}
