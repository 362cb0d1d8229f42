package streaming

import (
	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

func errUnsupportedKind(kind types.SourceKind) error {
	return apperr.New(apperr.Unsupported, "streaming", "newSource", "unsupported source kind: "+string(kind))
}
