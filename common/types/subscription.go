package types

import "strings"

// SubscriptionMode defines how receipts are watched, derived from the RPC URL scheme.
type SubscriptionMode int

const (
	WebSocketMode SubscriptionMode = iota
	HTTPPollingMode
)

// GetSubscriptionMode returns mode based on RPC URL
func GetSubscriptionMode(rpcURL string) SubscriptionMode {
	if strings.HasPrefix(rpcURL, "wss://") || strings.HasPrefix(rpcURL, "ws://") {
		return WebSocketMode
	}
	return HTTPPollingMode
}

// SubscriptionMode returns the receipt watching mode for the chain RPC.
func (c ChainConfig) SubscriptionMode() SubscriptionMode {
	return GetSubscriptionMode(c.RpcUrl)
}

func (m SubscriptionMode) String() string {
	switch m {
	case WebSocketMode:
		return "WebSocket"
	case HTTPPollingMode:
		return "HTTP"
	default:
		return "Unknown"
	}
}
