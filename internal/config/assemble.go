package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"linepair/internal/pipeline"
	"linepair/pkg/contract"
	"linepair/pkg/registry"
)

// validate 为进程级校验器（结构体标签规则）。
var validate = validator.New()

// Validate 对最小必要边界做静态校验；失败均包装 ErrInvalidArgument。
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: config: field %s failed %q", contract.ErrInvalidArgument, fieldPath(fe.Namespace()), fe.Tag())
		}
		return fmt.Errorf("%w: config: %w", contract.ErrInvalidArgument, err)
	}
	if *cfg.A < 0 {
		return fmt.Errorf("%w: config: a must be >= 0, got %d", contract.ErrInvalidArgument, *cfg.A)
	}
	d := Defaults()
	sn := effName(cfg.Components.Source, d.Components.Source)
	if registry.Source[sn] == nil {
		return fmt.Errorf("%w: config: source %q not registered (%s)", contract.ErrInvalidArgument, sn, registry.Names(registry.Source))
	}
	if gn := effName(cfg.Components.Generator, d.Components.Generator); registry.Generator[gn] == nil {
		return fmt.Errorf("%w: config: generator %q not registered (%s)", contract.ErrInvalidArgument, gn, registry.Names(registry.Generator))
	}
	// 文件源必须给出输入路径
	if sn == "fs" && strings.TrimSpace(cfg.Input) == "" {
		return fmt.Errorf("%w: config: input path is empty", contract.ErrInvalidArgument)
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	d := Defaults()
	sn := effName(cfg.Components.Source, d.Components.Source)
	gn := effName(cfg.Components.Generator, d.Components.Generator)

	src, err := registry.Source[sn](strings.TrimSpace(cfg.Input), cfg.Options.Source)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("%w: options.source: %w", contract.ErrInvalidArgument, err)
	}
	gen, err := registry.Generator[gn](cfg.Options.Generator)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("%w: options.generator: %w", contract.ErrInvalidArgument, err)
	}

	comp := pipeline.Components{Source: src, Generator: gen}
	set := pipeline.Settings{A: *cfg.A, Strategy: gn}
	return comp, set, nil
}

// AssembleWriter 构造结果 Writer；Output 为空时返回 nil（写到 stdout）。
func AssembleWriter(cfg Config) (contract.Writer, error) {
	out := strings.TrimSpace(cfg.Output)
	if out == "" || out == "-" {
		return nil, nil
	}
	w, err := registry.Writer["fs"](out, cfg.Options.Writer)
	if err != nil {
		return nil, fmt.Errorf("%w: output %q: %w", contract.ErrInvalidArgument, out, err)
	}
	return w, nil
}

func effName(got, def string) string {
	if strings.TrimSpace(got) == "" {
		return def
	}
	return strings.TrimSpace(got)
}

// fieldPath: "Config.Logging.Level" → "logging.level"
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}
