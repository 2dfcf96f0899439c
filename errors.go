package beans

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Container errors
var (
	// Lookup errors
	ErrNoSuchBean            = errors.New("no such bean")
	ErrBeanAmbiguous         = errors.New("ambiguous bean lookup")
	ErrBeanNotOfRequiredType = errors.New("bean is not of the required type")

	// Creation errors
	ErrBeanCreation            = errors.New("bean creation failed")
	ErrNoUsableConstructor     = errors.New("no usable constructor")
	ErrBeanCurrentlyInCreation = errors.New("bean is currently in creation")
	ErrPrototypeCycle          = errors.New("circular reference through prototype bean")
	ErrCreationLockTimeout     = errors.New("timed out waiting for bean creation lock")
	ErrInvalidHook             = errors.New("invalid lifecycle hook")
	ErrInvalidInjectionPoint   = errors.New("invalid injection point")
	ErrNilInstance             = errors.New("constructor returned nil instance")

	// Registration errors
	ErrInvalidComponent      = errors.New("invalid component")
	ErrBeanAlreadyRegistered = errors.New("bean already registered")
	ErrNilBean               = errors.New("bean instance is nil")

	// Container state errors
	ErrLoggerNotSet            = errors.New("logger not set")
	ErrContainerClosed         = errors.New("container is closed")
	ErrContainerNotInitialized = errors.New("container not initialized")
)

// NoSuchBeanError is returned when a lookup by name or by type matched no
// registration.
type NoSuchBeanError struct {
	Name string
	Type reflect.Type
}

func (e *NoSuchBeanError) Error() string {
	if e.Type != nil {
		return fmt.Sprintf("%s: no bean of type %s", ErrNoSuchBean, e.Type)
	}
	return fmt.Sprintf("%s: %q", ErrNoSuchBean, e.Name)
}

// Is makes errors.Is(err, ErrNoSuchBean) match.
func (e *NoSuchBeanError) Is(target error) bool {
	return target == ErrNoSuchBean
}

// AmbiguousBeanError is returned when a lookup by type matched more than one
// registration. Candidates lists every matching bean name.
type AmbiguousBeanError struct {
	Type       reflect.Type
	Candidates []string
}

func (e *AmbiguousBeanError) Error() string {
	return fmt.Sprintf("%s: %d beans match type %s: [%s]",
		ErrBeanAmbiguous, len(e.Candidates), e.Type, strings.Join(e.Candidates, ", "))
}

// Is makes errors.Is(err, ErrBeanAmbiguous) match.
func (e *AmbiguousBeanError) Is(target error) bool {
	return target == ErrBeanAmbiguous
}

// BeanCreationError reports a failure while instantiating, injecting or
// initializing a bean. Detail names the parameter, field or hook involved
// when one is known.
type BeanCreationError struct {
	BeanName string
	Detail   string
	Cause    error
}

func (e *BeanCreationError) Error() string {
	var b strings.Builder
	b.WriteString("error creating bean ")
	b.WriteString(fmt.Sprintf("%q", e.BeanName))
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Is makes errors.Is(err, ErrBeanCreation) match.
func (e *BeanCreationError) Is(target error) bool {
	return target == ErrBeanCreation
}

func (e *BeanCreationError) Unwrap() error {
	return e.Cause
}

func creationError(beanName, detail string, cause error) *BeanCreationError {
	return &BeanCreationError{BeanName: beanName, Detail: detail, Cause: cause}
}

// asCreationError wraps err for beanName unless it already is a creation error
// for the same bean.
func asCreationError(beanName string, err error) error {
	var bce *BeanCreationError
	if errors.As(err, &bce) && bce.BeanName == beanName {
		return err
	}
	return creationError(beanName, "", err)
}
