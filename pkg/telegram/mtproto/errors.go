package mtproto

import (
	"context"
	"errors"
	"strings"

	"tgbridge/pkg/telegram"

	"github.com/gotd/td/tgerr"
)

// notFoundTypes are lookups the server rejects because the target does not exist.
var notFoundTypes = map[string]struct{}{
	"USERNAME_NOT_OCCUPIED": {},
	"USERNAME_INVALID":      {},
	"PHONE_NOT_OCCUPIED":    {},
	"PEER_ID_INVALID":       {},
	"USER_ID_INVALID":       {},
	"CHAT_ID_INVALID":       {},
	"CHANNEL_INVALID":       {},
	"MSG_ID_INVALID":        {},
	"MESSAGE_ID_INVALID":    {},
	"BOT_INVALID":           {},
}

// classify wraps err with the telegram.ErrorKind that matches its RPC code
// and type. Errors that are already categorized pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var categorized *telegram.Error
	if errors.As(err, &categorized) {
		return err
	}

	return telegram.NewError(kindOf(err), op, err)
}

func kindOf(err error) telegram.ErrorKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return telegram.KindTransient
	}
	if _, ok := tgerr.AsFloodWait(err); ok {
		return telegram.KindRateLimited
	}

	rpcErr, ok := tgerr.As(err)
	if !ok {
		return telegram.KindTransient
	}

	if _, ok := notFoundTypes[rpcErr.Type]; ok {
		return telegram.KindNotFound
	}

	switch {
	case rpcErr.Code == 420 || strings.HasPrefix(rpcErr.Type, "FLOOD_"):
		return telegram.KindRateLimited
	case rpcErr.Code == 401 || rpcErr.Code == 403,
		strings.HasSuffix(rpcErr.Type, "_PRIVATE"),
		strings.HasSuffix(rpcErr.Type, "_FORBIDDEN"),
		strings.HasPrefix(rpcErr.Type, "CHAT_ADMIN_REQUIRED"),
		strings.HasPrefix(rpcErr.Type, "CHAT_WRITE_FORBIDDEN"):
		return telegram.KindPermissionDenied
	case rpcErr.Code == 400:
		return telegram.KindInvalid
	case rpcErr.Code >= 500:
		return telegram.KindTransient
	default:
		return telegram.KindUnknown
	}
}
