// Package errs defines the structured error taxonomy shared across every
// gcache component, built on top of github.com/agilira/go-errors so that
// every error carries a stable code, structured context, and (where it
// applies) a retryable/severity hint.
package errs

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for gcache operations.
const (
	CodeKeyBuild              errors.ErrorCode = "GOCACHE_KEY_BUILD_FAILED"
	CodeConfigAbsent          errors.ErrorCode = "GOCACHE_CONFIG_ABSENT"
	CodeTransport             errors.ErrorCode = "GOCACHE_TRANSPORT_ERROR"
	CodeSerialization         errors.ErrorCode = "GOCACHE_SERIALIZATION_ERROR"
	CodeReentrantSyncCall     errors.ErrorCode = "GOCACHE_REENTRANT_SYNC_CALL"
	CodeSingletonViolation    errors.ErrorCode = "GOCACHE_SINGLETON_VIOLATION"
	CodeConflictingRedisConf  errors.ErrorCode = "GOCACHE_CONFLICTING_REDIS_CONFIG"
	CodeReservedUseCase       errors.ErrorCode = "GOCACHE_RESERVED_USE_CASE"
	CodePanicRecovered        errors.ErrorCode = "GOCACHE_PANIC_RECOVERED"
	CodeMissingLayerConfig    errors.ErrorCode = "GOCACHE_MISSING_LAYER_CONFIG"
	CodeUseCaseAlreadyExists  errors.ErrorCode = "GOCACHE_USE_CASE_ALREADY_REGISTERED"
	CodeNotInstantiated       errors.ErrorCode = "GOCACHE_NOT_INSTANTIATED"
	CodeMissingRedisClient    errors.ErrorCode = "GOCACHE_MISSING_REDIS_CLIENT"
)

const (
	msgKeyBuild             = "failed to build cache key from call arguments"
	msgConfigAbsent         = "no key configuration available for use case"
	msgTransport            = "shared tier transport operation failed"
	msgSerialization        = "value serialization or deserialization failed"
	msgReentrantSyncCall    = "sync cached function invoked transitively from inside the bridge; convert the inner use case to an ordinary (non-blocking) call"
	msgSingletonViolation   = "a gcache facade is already instantiated in this process"
	msgConflictingRedisConf = "only one of a fixed Redis connection config or a client factory may be provided"
	msgReservedUseCase      = "use case \"watermark\" is reserved and cannot be registered"
	msgPanicRecovered       = "panic recovered while running the registered fallback"
	msgMissingLayerConfig   = "key config is missing a TTL for this layer"
	msgUseCaseAlreadyExists = "use case is already registered"
	msgNotInstantiated      = "no gcache facade has been constructed yet"
	msgMissingRedisClient   = "a fixed Redis connection or a client factory must be provided"
)

// NewKeyBuildError wraps a binding/adapter failure encountered while
// assembling a Key from call arguments.
func NewKeyBuildError(arg string, cause error) error {
	return errors.Wrap(cause, CodeKeyBuild, msgKeyBuild).
		WithContext("arg", arg)
}

// NewConfigAbsentError reports that neither the oracle nor the descriptor's
// default config could supply a Config for this use case.
func NewConfigAbsentError(useCase string) error {
	return errors.NewWithField(CodeConfigAbsent, msgConfigAbsent, "use_case", useCase)
}

// NewTransportError wraps a shared-tier I/O failure. stage identifies which
// operation failed (shared_get, shared_set, watermark, flushall, delete).
func NewTransportError(stage string, cause error) error {
	return errors.Wrap(cause, CodeTransport, msgTransport).
		WithContext("stage", stage).
		AsRetryable()
}

// NewSerializationError wraps a (de)serialization failure. direction is
// "ser" or "de".
func NewSerializationError(direction string, cause error) error {
	return errors.Wrap(cause, CodeSerialization, msgSerialization).
		WithContext("direction", direction)
}

// NewReentrantSyncCallError reports that a sync cached function attempted
// to dispatch onto the bridge from inside an already-running bridge worker.
func NewReentrantSyncCallError() error {
	return errors.New(CodeReentrantSyncCall, msgReentrantSyncCall)
}

// NewSingletonViolationError reports a second live facade construction.
func NewSingletonViolationError() error {
	return errors.New(CodeSingletonViolation, msgSingletonViolation)
}

// NewConflictingRedisConfigError reports mutually exclusive Redis wiring.
func NewConflictingRedisConfigError() error {
	return errors.New(CodeConflictingRedisConf, msgConflictingRedisConf)
}

// NewReservedUseCaseError reports registration of the reserved use case.
func NewReservedUseCaseError(useCase string) error {
	return errors.NewWithField(CodeReservedUseCase, msgReservedUseCase, "use_case", useCase)
}

// NewPanicRecoveredError wraps a panic value recovered while running a
// registered fallback function.
func NewPanicRecoveredError(operation string, panicValue interface{}) error {
	return errors.NewWithContext(CodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// NewMissingLayerConfigError reports a Config present for a use case but
// lacking a TTL for the requested layer.
func NewMissingLayerConfigError(useCase, layer string) error {
	return errors.NewWithContext(CodeMissingLayerConfig, msgMissingLayerConfig, map[string]interface{}{
		"use_case": useCase,
		"layer":    layer,
	})
}

// NewUseCaseAlreadyRegisteredError reports a duplicate Register call for
// the same use case.
func NewUseCaseAlreadyRegisteredError(useCase string) error {
	return errors.NewWithField(CodeUseCaseAlreadyExists, msgUseCaseAlreadyExists, "use_case", useCase)
}

// NewNotInstantiatedError reports an operation attempted before New.
func NewNotInstantiatedError() error {
	return errors.New(CodeNotInstantiated, msgNotInstantiated)
}

// NewMissingRedisClientError reports that a shared tier was configured with
// neither a fixed client nor a client factory.
func NewMissingRedisClientError() error {
	return errors.New(CodeMissingRedisClient, msgMissingRedisClient)
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code errors.ErrorCode) bool {
	return errors.HasCode(err, code)
}

// IsTransport reports whether err is a shared-tier transport error.
func IsTransport(err error) bool { return HasCode(err, CodeTransport) }

// IsSerialization reports whether err is a (de)serialization error.
func IsSerialization(err error) bool { return HasCode(err, CodeSerialization) }

// IsKeyBuild reports whether err is a key-construction error.
func IsKeyBuild(err error) bool { return HasCode(err, CodeKeyBuild) }

// IsConfigAbsent reports whether err reflects an absent Config.
func IsConfigAbsent(err error) bool { return HasCode(err, CodeConfigAbsent) }

// IsReentrantSyncCall reports whether err is a bridge reentrancy rejection.
func IsReentrantSyncCall(err error) bool { return HasCode(err, CodeReentrantSyncCall) }

// IsSingletonViolation reports whether err is a singleton-construction error.
func IsSingletonViolation(err error) bool { return HasCode(err, CodeSingletonViolation) }

// Code extracts the structured error code carried by err, if any.
func Code(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// Context extracts the structured context map carried by err, if any.
func Context(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var gerr *errors.Error
	if goerrors.As(err, &gerr) {
		return gerr.Context
	}
	return nil
}
