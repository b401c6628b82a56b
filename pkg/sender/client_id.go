package sender

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sender/pkg/logger"
)

// clientIDSequence numbers synthesized client ids across the whole process.
var clientIDSequence atomic.Int64

// ensureClientID sets client.id in overlay when it is missing. A configured
// transactional id yields "producer-<transactional id>", which stays stable
// across restarts; otherwise the next process-wide sequence number is used.
func ensureClientID(overlay map[string]any) {
	if _, ok := overlay[ClientIDConfig]; ok {
		return
	}

	var clientID, source string
	if txID, ok := overlay[TransactionalIDConfig]; ok && txID != nil {
		clientID = clientIDPrefix + fmt.Sprint(txID)
		source = "transactional_id"
	} else {
		clientID = clientIDPrefix + strconv.FormatInt(clientIDSequence.Add(1), 10)
		source = "sequence"
	}
	overlay[ClientIDConfig] = clientID

	logger.Debug("synthesized producer client id",
		zap.String("client_id", clientID),
		zap.String("source", source))
}

// resetClientIDSequence restarts numbering at 1. Tests only.
func resetClientIDSequence() {
	clientIDSequence.Store(0)
}
