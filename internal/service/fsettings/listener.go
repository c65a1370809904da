// Package fsettings delivers operator settings pushed through a Firestore
// document. Every snapshot of the document is forwarded whole; consumers
// decide what changed.
package fsettings

import (
	"context"
	"fmt"

	"PaperDeck/internal/domain/models"
	"PaperDeck/pkg/logger"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Listener implements a SettingsFeed over a document-level snapshot listener.
type Listener struct {
	client     *firestore.Client
	collection string
	doc        string
	logger     *logger.Logger
}

// New initializes the Firebase app and opens a Firestore client.
func New(ctx context.Context, credentialsFile, collection, doc string, lgr *logger.Logger) (*Listener, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting firestore client: %w", err)
	}

	return &Listener{
		client:     client,
		collection: collection,
		doc:        doc,
		logger:     lgr,
	}, nil
}

// Subscribe opens the snapshot listener and streams every settings change.
// The returned cancel func tears the listener down and closes the channel.
// A missing document still delivers, as the zero Settings value.
func (l *Listener) Subscribe(ctx context.Context) (<-chan models.Settings, func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan models.Settings, 1)

	iter := l.client.Collection(l.collection).Doc(l.doc).Snapshots(subCtx)

	go func() {
		defer close(out)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled || subCtx.Err() != nil {
					return
				}
				if l.logger != nil {
					l.logger.Error("settings listener failed", logger.Error(err))
				}
				return
			}

			var settings models.Settings
			if snap.Exists() {
				if err := snap.DataTo(&settings); err != nil {
					if l.logger != nil {
						l.logger.Warn("settings document malformed", logger.Error(err))
					}
					continue
				}
			}

			select {
			case out <- settings:
			case <-subCtx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}

// Close releases the Firestore client.
func (l *Listener) Close() error {
	return l.client.Close()
}
