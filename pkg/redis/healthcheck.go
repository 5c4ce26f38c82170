package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Healthcheck returns the readiness check of the tenant lookup cache. Any
// reply to PING other than PONG fails it.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		reply, err := client.Ping(ctx).Result()
		switch {
		case err != nil:
			return errors.Join(ErrHealthcheckFailed, err)
		case reply != "PONG":
			return fmt.Errorf("%w: unexpected ping reply %q", ErrHealthcheckFailed, reply)
		}
		return nil
	}
}
