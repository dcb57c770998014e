package config

const (
	defaultDataDir            = "~/.local/share/loopsleuth"
	defaultLogDir             = "~/.local/share/loopsleuth/logs"
	defaultPreviewDirName     = "thumbnails"
	defaultCatalogFileName    = "loopsleuth.db"
	defaultLockStaleMinutes   = 60
	defaultDuplicatePolicy    = "mark-for-review"
	defaultDuplicateThreshold = 5
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultPreviewWidth       = 256
	defaultPreviewQuality     = 85
	defaultPreviewTimePercent = 0.25
	defaultAnimatedSeconds    = 3.0
	defaultAnimatedFPS        = 10
	defaultAnimatedWidth      = 320
	defaultAPIBind            = "127.0.0.1:8765"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var defaultExtensions = []string{".mov", ".mp4", ".avi", ".mkv"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Scan: Scan{
			Extensions:       append([]string(nil), defaultExtensions...),
			LockStaleMinutes: defaultLockStaleMinutes,
			AnimatedPreviews: false,
		},
		Dedupe: Dedupe{
			Policy:    defaultDuplicatePolicy,
			Threshold: defaultDuplicateThreshold,
		},
		Preview: Preview{
			FFmpegBinary:    defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			Width:           defaultPreviewWidth,
			JPEGQuality:     defaultPreviewQuality,
			TimePercent:     defaultPreviewTimePercent,
			AnimatedSeconds: defaultAnimatedSeconds,
			AnimatedFPS:     defaultAnimatedFPS,
			AnimatedWidth:   defaultAnimatedWidth,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
