package capability

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/wrtgo/foundation/internal/logging"
	"github.com/wrtgo/foundation/internal/utils"
	"github.com/wrtgo/foundation/partition"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
	"golang.org/x/exp/slog"
)

// Context is the registry of capabilities, one per partition, that the rest of the runtime
// consults before it materializes memory. Capabilities registered through RegisterDynamic and
// RegisterStatic inherit the context's verification level.
type Context struct {
	logger    *slog.Logger
	authority Authority
	level     verification.Level

	mutex        *utils.OptionalRWMutex
	capabilities *swiss.Map[partition.ID, Capability]
}

// ContextBuilder configures a Context
type ContextBuilder struct {
	authority    Authority
	logger       *slog.Logger
	level        verification.Level
	synchronized bool
}

// NewContextBuilder starts a Context spending against authority, at the default verification
// level, safe for concurrent use
func NewContextBuilder(authority Authority) *ContextBuilder {
	return &ContextBuilder{
		authority:    authority,
		level:        verification.DefaultLevel,
		synchronized: true,
	}
}

func (b *ContextBuilder) WithLogger(logger *slog.Logger) *ContextBuilder {
	b.logger = logger
	return b
}

func (b *ContextBuilder) WithVerificationLevel(level verification.Level) *ContextBuilder {
	b.level = level
	return b
}

// ExternallySynchronized skips internal locking. The caller guarantees that the context is
// never used from more than one goroutine at a time.
func (b *ContextBuilder) ExternallySynchronized() *ContextBuilder {
	b.synchronized = false
	return b
}

func (b *ContextBuilder) Build() *Context {
	return &Context{
		logger:       logging.OrDiscard(b.logger),
		authority:    b.authority,
		level:        b.level,
		mutex:        utils.NewOptionalRWMutex(b.synchronized),
		capabilities: swiss.NewMap[partition.ID, Capability](uint32(partition.MaxPartitions)),
	}
}

// NewContext creates a synchronized context at the default verification level
func NewContext(authority Authority, logger *slog.Logger) *Context {
	return NewContextBuilder(authority).WithLogger(logger).Build()
}

// VerificationLevel returns the level given to capabilities the context creates
func (c *Context) VerificationLevel() verification.Level {
	return c.level
}

// RegisterDynamic registers a dynamic capability for p that spends against the context's
// authority
func (c *Context) RegisterDynamic(p partition.ID, maxAllocation int) (*Dynamic, error) {
	c.logger.Debug("Context::RegisterDynamic", slog.String("Partition", p.String()), slog.Int("MaxAllocation", maxAllocation))

	if c.authority == nil {
		return nil, errors.Newf("context has no budget authority for a dynamic capability on %s", p)
	}

	capability := NewDynamic(c.authority, maxAllocation, p, c.level)
	err := c.Register(p, capability)
	if err != nil {
		return nil, err
	}
	return capability, nil
}

// RegisterStatic registers a static capability of size bytes for p
func (c *Context) RegisterStatic(p partition.ID, size int) (*Static, error) {
	c.logger.Debug("Context::RegisterStatic", slog.String("Partition", p.String()), slog.Int("Size", size))

	capability := NewStatic(p, size, c.level)
	err := c.Register(p, capability)
	if err != nil {
		return nil, err
	}
	return capability, nil
}

// Register adds capability for p. The capability must have been issued for p, and p must not
// already have one.
func (c *Context) Register(p partition.ID, capability Capability) error {
	err := p.CheckIndex()
	if err != nil {
		return err
	}

	if capability.Owner() != p {
		return &DeniedError{Partition: p, Owner: capability.Owner(), Operation: Allocate(capability.MaxAllocation())}
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.capabilities.Has(p) {
		return errors.Wrapf(ErrDuplicateCapability, "partition %s", p)
	}

	c.capabilities.Put(p, capability)
	return nil
}

// Get returns the capability registered for p
func (c *Context) Get(p partition.ID) (Capability, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	capability, ok := c.capabilities.Get(p)
	if !ok {
		return nil, errors.Wrapf(ErrNoCapability, "partition %s", p)
	}
	return capability, nil
}

func (c *Context) Has(p partition.ID) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.capabilities.Has(p)
}

// Remove unregisters and returns the capability for p. Outstanding grants of a removed dynamic
// capability remain the caller's to return.
func (c *Context) Remove(p partition.ID) (Capability, bool) {
	c.logger.Debug("Context::Remove", slog.String("Partition", p.String()))

	c.mutex.Lock()
	defer c.mutex.Unlock()

	capability, ok := c.capabilities.Get(p)
	if ok {
		c.capabilities.Delete(p)
	}
	return capability, ok
}

func (c *Context) Count() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.capabilities.Count()
}

// Partitions returns the partitions with a registered capability, in index order
func (c *Context) Partitions() []partition.ID {
	c.mutex.RLock()
	partitions := make([]partition.ID, 0, c.capabilities.Count())
	c.capabilities.Iter(func(p partition.ID, _ Capability) bool {
		partitions = append(partitions, p)
		return false
	})
	c.mutex.RUnlock()

	slices.Sort(partitions)
	return partitions
}

// VerifyOperation verifies op with the capability registered for p
func (c *Context) VerifyOperation(p partition.ID, op Operation) error {
	capability, err := c.Get(p)
	if err != nil {
		return err
	}
	return capability.VerifyOperation(p, op)
}

// CreateProvider creates a provider of size bytes with the capability registered for p
func (c *Context) CreateProvider(p partition.ID, size int) (provider.Provider, error) {
	c.logger.Debug("Context::CreateProvider", slog.String("Partition", p.String()), slog.Int("Size", size))

	capability, err := c.Get(p)
	if err != nil {
		return nil, err
	}
	return capability.CreateProvider(size)
}

// Close returns the outstanding grants of every registered dynamic capability
func (c *Context) Close() error {
	c.logger.Debug("Context::Close")

	var err error
	for _, p := range c.Partitions() {
		capability, getErr := c.Get(p)
		if getErr != nil {
			continue
		}

		if dynamic, ok := capability.(*Dynamic); ok {
			err = errors.CombineErrors(err, dynamic.Close())
		}
	}

	return err
}

// BuildStatsString renders the registered capabilities as JSON
func (c *Context) BuildStatsString() string {
	writer := jwriter.NewWriter()

	obj := writer.Object()
	obj.Name("VerificationLevel").String(c.level.String())
	obj.Name("Synchronized").Bool(c.mutex.Enabled())

	capabilities := obj.Name("Capabilities").Object()
	for _, p := range c.Partitions() {
		capability, err := c.Get(p)
		if err != nil {
			continue
		}

		capabilityObj := capabilities.Name(p.String()).Object()
		capabilityObj.Name("MaxAllocation").Int(capability.MaxAllocation())
		capabilityObj.Name("VerificationLevel").String(capability.VerificationLevel().String())
		switch typed := capability.(type) {
		case *Dynamic:
			capabilityObj.Name("Kind").String("Dynamic")
			capabilityObj.Name("Grants").Int(typed.GrantCount())
			capabilityObj.Name("OutstandingBytes").Int(typed.Outstanding())
		case *Static:
			capabilityObj.Name("Kind").String("Static")
		default:
			capabilityObj.Name("Kind").String("Custom")
		}
		capabilityObj.End()
	}
	capabilities.End()

	obj.End()

	return string(writer.Bytes())
}
