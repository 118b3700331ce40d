package feedback

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/courtneylabs/widget-core/core/feedback"

var logger = otelslog.NewLogger(scopeName)
