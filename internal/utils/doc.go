// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the Viper-backed ConfigurationLoader, the zap LoggerFactory, the
// command context accessor shared through Cobra contexts, and a writer that
// keeps streamed watch output flushed.
package utils
