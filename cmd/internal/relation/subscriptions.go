package relation

import (
	"context"
	"strings"
	"time"

	"reel/cmd/identity"
	"reel/cmd/internal/content"
)

// ToggleSubscription flips whether subscriberID follows channelID.
// Subscribing to one's own channel is rejected. A channel is just a user.
func (s *PostgresStore) ToggleSubscription(ctx context.Context, subscriberID, channelID string, now time.Time) (Outcome, error) {
	const op = "relation.ToggleSubscription"

	if strings.TrimSpace(subscriberID) == "" || strings.TrimSpace(channelID) == "" {
		return "", invalid(op, "missing subscriber_id or channel_id")
	}
	if subscriberID == channelID {
		return "", OpError{Op: op, Kind: ErrSelfSubscribe}
	}

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+s.table("users")+` WHERE id = $1)`,
		channelID,
	).Scan(&exists)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", OpError{Op: op, Kind: ErrNotFound, Msg: "channel"}
	}

	subs := s.table("subscriptions")

	var subscribed bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM `+subs+`
		    WHERE subscriber_id = $1 AND channel_id = $2
		 )`,
		subscriberID, channelID,
	).Scan(&subscribed)
	if err != nil {
		return "", err
	}

	if subscribed {
		_, err := s.pool.Exec(ctx,
			`DELETE FROM `+subs+` WHERE subscriber_id = $1 AND channel_id = $2`,
			subscriberID, channelID,
		)
		if err != nil {
			return "", err
		}
		return Removed, nil
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+subs+` (subscriber_id, channel_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (subscriber_id, channel_id) DO NOTHING`,
		subscriberID, channelID, orNow(now),
	)
	if err != nil {
		return "", err
	}
	return Created, nil
}

// IsSubscribed reports the current subscription state.
func (s *PostgresStore) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	const op = "relation.IsSubscribed"

	if strings.TrimSpace(subscriberID) == "" || strings.TrimSpace(channelID) == "" {
		return false, invalid(op, "missing subscriber_id or channel_id")
	}

	var subscribed bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM `+s.table("subscriptions")+`
		    WHERE subscriber_id = $1 AND channel_id = $2
		 )`,
		subscriberID, channelID,
	).Scan(&subscribed)
	return subscribed, err
}

// CountSubscribers returns the subscriber total for a channel.
func (s *PostgresStore) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	const op = "relation.CountSubscribers"

	if strings.TrimSpace(channelID) == "" {
		return 0, invalid(op, "missing channel_id")
	}

	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+s.table("subscriptions")+` WHERE channel_id = $1`,
		channelID,
	).Scan(&n)
	return n, err
}

const subscriptionUserColumns = `u.id, u.username, u.username_norm, u.email, u.email_norm, u.full_name, u.avatar_url, u.cover_url, u.created_at, u.updated_at`

// ListSubscribers returns the users subscribed to a channel, newest first.
func (s *PostgresStore) ListSubscribers(ctx context.Context, channelID string, page content.Page) ([]identity.User, error) {
	const op = "relation.ListSubscribers"

	if strings.TrimSpace(channelID) == "" {
		return nil, invalid(op, "missing channel_id")
	}

	return s.listSubscriptionUsers(ctx, page,
		`SELECT `+subscriptionUserColumns+`
		   FROM `+s.table("subscriptions")+` sub
		   JOIN `+s.table("users")+` u ON u.id = sub.subscriber_id
		  WHERE sub.channel_id = $1
		  ORDER BY sub.created_at DESC, u.id DESC
		  LIMIT $2 OFFSET $3`,
		channelID,
	)
}

// ListSubscribedChannels returns the channels a user follows, newest first.
func (s *PostgresStore) ListSubscribedChannels(ctx context.Context, subscriberID string, page content.Page) ([]identity.User, error) {
	const op = "relation.ListSubscribedChannels"

	if strings.TrimSpace(subscriberID) == "" {
		return nil, invalid(op, "missing subscriber_id")
	}

	return s.listSubscriptionUsers(ctx, page,
		`SELECT `+subscriptionUserColumns+`
		   FROM `+s.table("subscriptions")+` sub
		   JOIN `+s.table("users")+` u ON u.id = sub.channel_id
		  WHERE sub.subscriber_id = $1
		  ORDER BY sub.created_at DESC, u.id DESC
		  LIMIT $2 OFFSET $3`,
		subscriberID,
	)
}

func (s *PostgresStore) listSubscriptionUsers(ctx context.Context, page content.Page, query, anchorID string) ([]identity.User, error) {
	page = page.Clamp()

	rows, err := s.pool.Query(ctx, query, anchorID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []identity.User{}
	for rows.Next() {
		var u identity.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.UsernameNorm, &u.Email, &u.EmailNorm,
			&u.FullName, &u.AvatarURL, &u.CoverURL, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
