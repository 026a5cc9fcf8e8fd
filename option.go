package bridge

// DefaultBacklog is the listen backlog of the bridge socket.
const DefaultBacklog = 16

// options holds the configuration shared by Session and Peer.
type options struct {
	codec   Codec
	logger  Logger
	metrics *Metrics

	bufferSize int // capacity of the frame buffer
	backlog    int // pending connections queued by the listener
}

// Option is a function that configures session or peer options.
type Option func(*options)

// CodecOption returns an Option that sets the payload codec.
// If not set, ProtobufCodec is used.
func CodecOption(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// BufferSizeOption returns an Option that sets the frame buffer capacity.
// No frame larger than this, header included, can be sent or received.
func BufferSizeOption(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// BacklogOption returns an Option that sets the listen backlog.
func BacklogOption(backlog int) Option {
	return func(o *options) {
		o.backlog = backlog
	}
}

// MetricsOption returns an Option that records frame and error counts.
func MetricsOption(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func newOptions(opt []Option) options {
	var opts options
	for _, o := range opt {
		o(&opts)
	}
	checkOptions(&opts)
	return opts
}

// checkOptions sets default values for unset options.
func checkOptions(opts *options) {
	if opts.codec == nil {
		opts.codec = ProtobufCodec{}
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	if opts.bufferSize <= 0 {
		opts.bufferSize = DefaultBufferSize
	}

	if opts.backlog <= 0 {
		opts.backlog = DefaultBacklog
	}
}
