// Package config reads the tlbimp.toml manifest. The manifest carries
// the same knobs as the command line; flags win when both are given.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"tlbimp/internal/convert"
	"tlbimp/internal/diag"
)

// FileName is what Find looks for while walking up.
const FileName = "tlbimp.toml"

// Manifest mirrors tlbimp.toml.
type Manifest struct {
	Assembly    Assembly    `toml:"assembly"`
	Options     RunOptions  `toml:"options"`
	References  References  `toml:"references"`
	Diagnostics Diagnostics `toml:"diagnostics"`

	dir string
}

// Assembly is the [assembly] section: output identity overrides.
type Assembly struct {
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`
	Version   string `toml:"version" validate:"omitempty,asmversion"`
}

// RunOptions is the [options] section, one key per import option.
type RunOptions struct {
	Primary                  bool   `toml:"primary"`
	Unsafe                   bool   `toml:"unsafe"`
	SysArray                 bool   `toml:"sys-array"`
	TransformDispRetvals     bool   `toml:"transform-disp-retvals"`
	NoClassMembers           bool   `toml:"no-class-members"`
	SerializableValueClasses bool   `toml:"serializable-value-classes"`
	VariantBoolField         bool   `toml:"variant-bool-field"`
	LegacyQuirks             bool   `toml:"legacy-quirks"`
	StrictRef                bool   `toml:"strict-ref"`
	Arch                     string `toml:"arch" validate:"omitempty,oneof=default agnostic x86 x64 itanium arm"`
}

// References is the [references] section: assembly snapshots consulted
// for foreign types.
type References struct {
	Paths []string `toml:"paths" validate:"dive,required"`
}

// Diagnostics is the [diagnostics] section.
type Diagnostics struct {
	Silence []uint16 `toml:"silence"`
	Silent  bool     `toml:"silent"`
	Max     int      `toml:"max" validate:"gte=0"`
}

// Find walks up from startDir to locate tlbimp.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses and validates a manifest file.
func Load(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(names, ", "))
	}
	m.dir = filepath.Dir(path)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// mirrors the driver's major.minor[.build[.revision]] check
	_ = v.RegisterValidation("asmversion", func(fl validator.FieldLevel) bool {
		parts := strings.Split(fl.Field().String(), ".")
		if len(parts) < 2 || len(parts) > 4 {
			return false
		}
		for _, p := range parts {
			if _, err := strconv.ParseUint(p, 10, 16); err != nil {
				return false
			}
		}
		return true
	})
	return v
}

// Validate checks field constraints and reports every violation at once.
func (m *Manifest) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err
	}
	msgs := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		msgs = append(msgs, fieldPath(ve)+": "+fieldMessage(ve))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldPath renders the manifest key the violation points at.
func fieldPath(ve validator.FieldError) string {
	ns := strings.TrimPrefix(ve.Namespace(), "Manifest.")
	return strings.ToLower(ns)
}

func fieldMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(ve.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "asmversion":
		return "must be major.minor[.build[.revision]]"
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

// ConvertOptions maps the manifest onto the importer's option set.
func (m *Manifest) ConvertOptions() (convert.Options, error) {
	arch, err := convert.ParseArch(m.Options.Arch)
	if err != nil {
		return convert.Options{}, err
	}
	return convert.Options{
		AssemblyName:             m.Assembly.Name,
		AssemblyVersion:          m.Assembly.Version,
		Namespace:                m.Assembly.Namespace,
		PrimaryInterop:           m.Options.Primary,
		UnsafeInterfaces:         m.Options.Unsafe,
		SafeArrayAsUniversal:     m.Options.SysArray,
		TransformDispRetvals:     m.Options.TransformDispRetvals,
		PreventClassMembers:      m.Options.NoClassMembers,
		SerializableValueClasses: m.Options.SerializableValueClasses,
		VariantBoolFieldToBool:   m.Options.VariantBoolField,
		LegacyQuirks:             m.Options.LegacyQuirks,
		StrictRef:                m.Options.StrictRef,
		TargetArch:               arch,
	}, nil
}

// ReferencePaths returns the reference snapshots with relative entries
// resolved against the manifest's directory.
func (m *Manifest) ReferencePaths() []string {
	if len(m.References.Paths) == 0 {
		return nil
	}
	out := make([]string, len(m.References.Paths))
	for i, p := range m.References.Paths {
		if filepath.IsAbs(p) || m.dir == "" {
			out[i] = p
			continue
		}
		out[i] = filepath.Join(m.dir, p)
	}
	return out
}

// SilenceCodes converts the [diagnostics] silence list to diag codes.
func (m *Manifest) SilenceCodes() []diag.Code {
	if len(m.Diagnostics.Silence) == 0 {
		return nil
	}
	codes := make([]diag.Code, len(m.Diagnostics.Silence))
	for i, c := range m.Diagnostics.Silence {
		codes[i] = diag.Code(c)
	}
	return codes
}
