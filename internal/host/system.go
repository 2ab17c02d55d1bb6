package host

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Key systems queried by the DRM source.
const (
	KeySystemClearKey  = "org.w3.clearkey"
	KeySystemWidevine  = "com.widevine.alpha"
	KeySystemPlayReady = "com.microsoft.playready"
	KeySystemFairPlay  = "com.apple.fps"
)

var pciVendors = map[string][2]string{
	"0x10de": {"nvidia", "NVIDIA Corporation"},
	"0x1002": {"amd", "Advanced Micro Devices, Inc."},
	"0x8086": {"intel", "Intel Corporation"},
	"0x106b": {"apple", "Apple Inc."},
	"0x1af4": {"virtio", "Red Hat, Inc."},
	"0x15ad": {"vmware", "VMware, Inc."},
	"0x5143": {"qualcomm", "Qualcomm Technologies, Inc."},
}

var widevinePaths = []string{
	"opt/google/chrome/WidevineCdm/_platform_specific/linux_x64/libwidevinecdm.so",
	"usr/lib/chromium/WidevineCdm/_platform_specific/linux_x64/libwidevinecdm.so",
	"usr/lib64/chromium-browser/WidevineCdm/_platform_specific/linux_x64/libwidevinecdm.so",
	"usr/lib/firefox/gmp-widevinecdm/libwidevinecdm.so",
}

// SystemOptions configures the system provider.
type SystemOptions struct {
	// Root is prepended to every filesystem path; "/" when empty.
	Root string
	// DeniedFeatures are refused by Allowed.
	DeniedFeatures []string
}

// System reads capabilities from the running machine. Reads go through
// procfs and sysfs and fail softly on hosts that lack them.
type System struct {
	root   string
	denied map[string]bool
	start  time.Time
}

var _ Provider = (*System)(nil)

// NewSystem creates a provider for the local machine.
func NewSystem(opts SystemOptions) *System {
	root := opts.Root
	if root == "" {
		root = "/"
	}
	denied := make(map[string]bool, len(opts.DeniedFeatures))
	for _, f := range opts.DeniedFeatures {
		denied[strings.ToLower(strings.TrimSpace(f))] = true
	}
	return &System{root: root, denied: denied, start: time.Now()}
}

func (s *System) path(parts ...string) string {
	return filepath.Join(append([]string{s.root}, parts...)...)
}

func (s *System) SecureContext() bool { return true }

func (s *System) Allowed(feature string) bool {
	return !s.denied[strings.ToLower(feature)]
}

type gpuDevice struct {
	dir    string
	vendor string
	device string
	driver string
}

// primaryGPU returns the lowest numbered DRM card.
func (s *System) primaryGPU() (gpuDevice, error) {
	cards, err := filepath.Glob(s.path("sys", "class", "drm", "card[0-9]*"))
	if err != nil {
		return gpuDevice{}, err
	}
	sort.Strings(cards)
	for _, card := range cards {
		if strings.Contains(filepath.Base(card), "-") {
			continue // connector, not a card
		}
		dir := filepath.Join(card, "device")
		vendor, err := readTrimmed(filepath.Join(dir, "vendor"))
		if err != nil {
			continue
		}
		device, _ := readTrimmed(filepath.Join(dir, "device"))
		driver := ""
		if target, err := os.Readlink(filepath.Join(dir, "driver")); err == nil {
			driver = filepath.Base(target)
		}
		return gpuDevice{dir: dir, vendor: strings.ToLower(vendor), device: strings.ToLower(device), driver: driver}, nil
	}
	return gpuDevice{}, ErrUnsupported
}

func (s *System) Graphics(ctx context.Context) (GraphicsInfo, error) {
	gpu, err := s.primaryGPU()
	if err != nil {
		return GraphicsInfo{}, err
	}
	names, known := pciVendors[gpu.vendor]
	vendor := gpu.vendor
	if known {
		vendor = names[1]
	}
	renderer := strings.TrimSpace(fmt.Sprintf("%s (%s)", gpu.driver, gpu.device))

	info := GraphicsInfo{
		Vendor:           vendor,
		Renderer:         renderer,
		UnmaskedVendor:   vendor,
		UnmaskedRenderer: renderer,
	}
	if gpu.driver != "" {
		if v, err := readTrimmed(s.path("sys", "module", gpu.driver, "version")); err == nil {
			info.Version = v
		}
	}
	return info, nil
}

// GraphicsExtensions lists the parameters exposed by the GPU kernel driver.
func (s *System) GraphicsExtensions(ctx context.Context) ([]string, error) {
	gpu, err := s.primaryGPU()
	if err != nil {
		return nil, err
	}
	if gpu.driver == "" {
		return nil, ErrUnsupported
	}
	entries, err := os.ReadDir(s.path("sys", "module", gpu.driver, "parameters"))
	if err != nil {
		return nil, ErrUnsupported
	}
	exts := make([]string, 0, len(entries))
	for _, e := range entries {
		exts = append(exts, gpu.driver+"_"+e.Name())
	}
	return exts, nil
}

// ComputeAdapter reports the GPU behind the first render node.
func (s *System) ComputeAdapter(ctx context.Context) (AdapterInfo, error) {
	nodes, _ := filepath.Glob(s.path("dev", "dri", "renderD*"))
	if len(nodes) == 0 {
		return AdapterInfo{}, ErrUnsupported
	}
	gpu, err := s.primaryGPU()
	if err != nil {
		return AdapterInfo{}, err
	}
	info := AdapterInfo{
		Vendor:       gpu.vendor,
		Architecture: gpu.driver,
		Device:       gpu.device,
	}
	if names, ok := pciVendors[gpu.vendor]; ok {
		info.Vendor = names[0]
		info.Description = names[1]
	}
	return info, nil
}

func (s *System) RenderAudio(ctx context.Context) ([]float32, error) {
	return renderOscillator(ctx)
}

func (s *System) RequestKeySystem(ctx context.Context, keySystem string) (bool, error) {
	switch keySystem {
	case KeySystemClearKey:
		return true, nil
	case KeySystemWidevine:
		for _, p := range widevinePaths {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			if _, err := os.Stat(s.path(p)); err == nil {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

// Math returns the Go math package; its results are bit-identical for a
// given build.
func (s *System) Math() MathFuncs {
	return MathFuncs{
		Acos: math.Acos, Acosh: math.Acosh, Asinh: math.Asinh, Atanh: math.Atanh, Atan: math.Atan,
		Sin: math.Sin, Sinh: math.Sinh, Cos: math.Cos, Cosh: math.Cosh, Tan: math.Tan, Tanh: math.Tanh,
		Exp: math.Exp, Expm1: math.Expm1, Log1p: math.Log1p,
		Pow:   math.Pow,
		Exact: true,
	}
}

func (s *System) Now() time.Duration {
	return time.Since(s.start)
}

func (s *System) Hardware() (Hardware, error) {
	hw := Hardware{
		Concurrency: runtime.NumCPU(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
	}
	if mem, err := s.memTotal(); err == nil {
		hw.MemoryBytes = mem
	}
	return hw, nil
}

func (s *System) memTotal() (uint64, error) {
	f, err := os.Open(s.path("proc", "meminfo"))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "MemTotal:" {
			kb, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parse MemTotal: %w", err)
			}
			return kb * 1024, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, ErrUnsupported
}

func readTrimmed(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
