package wizard

import (
	"fmt"
	"time"

	"installer-shell/internal/domain"
)

// Script globals registered by the controller.
const (
	GlobalInstaller = "installer"
	GlobalGUI       = "gui"
)

// registerScriptAPI exposes the installer object in both contexts and the
// gui object in the control context.
func (c *Controller) registerScriptAPI() {
	installer := domain.ScriptObject{Name: GlobalInstaller, Methods: c.installerMethods()}
	for _, sc := range c.scriptContexts() {
		if err := sc.Register(installer); err != nil {
			c.logger.Error("register script object", "context", sc.Name(), "object", GlobalInstaller, "error", err)
		}
	}
	if c.control == nil {
		return
	}
	gui := domain.ScriptObject{Name: GlobalGUI, Methods: c.guiMethods()}
	if err := c.control.Register(gui); err != nil {
		c.logger.Error("register script object", "context", c.control.Name(), "object", GlobalGUI, "error", err)
	}
}

func (c *Controller) installerMethods() map[string]domain.ScriptFunc {
	mode := func(pred func(domain.RunMode) bool) domain.ScriptFunc {
		return func(...any) (any, error) { return pred(c.engine.Mode()), nil }
	}
	return map[string]domain.ScriptFunc{
		"isInstaller":      mode(domain.RunMode.IsInstaller),
		"isUpdater":        mode(domain.RunMode.IsUpdater),
		"isUninstaller":    mode(domain.RunMode.IsUninstaller),
		"isPackageManager": mode(domain.RunMode.IsPackageManager),
		"isMaintainer":     mode(domain.RunMode.IsMaintainer),
		"value": func(args ...any) (any, error) {
			key, err := stringArg(args, 0, "key")
			if err != nil {
				return nil, err
			}
			return c.engine.Value(key), nil
		},
		"setValue": func(args ...any) (any, error) {
			key, err := stringArg(args, 0, "key")
			if err != nil {
				return nil, err
			}
			val, err := stringArg(args, 1, "value")
			if err != nil {
				return nil, err
			}
			c.engine.SetValue(key, val)
			return nil, nil
		},
		"addWizardPage": func(args ...any) (any, error) {
			name, err := stringArg(args, 0, "widget")
			if err != nil {
				return nil, err
			}
			before, err := pageArg(args, 1)
			if err != nil {
				return nil, err
			}
			title, _ := stringArg(args, 2, "title")
			w, ok := c.widgets[name]
			if !ok {
				w = NewWidget(name, title)
			}
			return int(c.InsertDynamicPage(w, before)), nil
		},
		"removeWizardPage": func(args ...any) (any, error) {
			name, err := stringArg(args, 0, "widget")
			if err != nil {
				return nil, err
			}
			w, ok := c.widgets[name]
			if !ok {
				return false, nil
			}
			c.RemoveDynamicPage(w)
			return true, nil
		},
		"setDefaultPageVisible": func(args ...any) (any, error) {
			id, err := pageArg(args, 0)
			if err != nil {
				return nil, err
			}
			c.SetPageVisible(id, boolArg(args, 1))
			return nil, nil
		},
		"addWizardPageItem": func(args ...any) (any, error) {
			name, err := stringArg(args, 0, "widget")
			if err != nil {
				return nil, err
			}
			id, err := pageArg(args, 1)
			if err != nil {
				return nil, err
			}
			w, ok := c.widgets[name]
			if !ok {
				w = NewWidget(name, "")
			}
			return nil, c.InsertWidget(w, id, intArg(args, 2))
		},
		"removeWizardPageItem": func(args ...any) (any, error) {
			name, err := stringArg(args, 0, "widget")
			if err != nil {
				return nil, err
			}
			w, ok := c.widgets[name]
			return ok && c.RemoveWidget(w), nil
		},
		"setWidgetText": func(args ...any) (any, error) {
			name, err := stringArg(args, 0, "widget")
			if err != nil {
				return nil, err
			}
			text, _ := stringArg(args, 1, "text")
			w, ok := c.widgets[name]
			if !ok {
				return nil, domain.NewSubSystemError("wizard", "installer.setWidgetText", domain.ErrNotFound, name)
			}
			w.SetBody(text)
			if p := w.Page(); p != nil {
				c.pageChanged(p)
			} else if p, ok := c.registry.FindWidget(w); ok {
				c.pageChanged(p)
			}
			return nil, nil
		},
		"componentSelected": func(args ...any) (any, error) {
			name, err := stringArg(args, 0, "component")
			if err != nil {
				return nil, err
			}
			for _, comp := range c.engine.Components() {
				if comp.Name == name {
					return comp.Selected, nil
				}
			}
			return false, nil
		},
		"setComponentSelected": func(args ...any) (any, error) {
			name, err := stringArg(args, 0, "component")
			if err != nil {
				return nil, err
			}
			return nil, c.SetComponentSelected(name, boolArg(args, 1))
		},
	}
}

func (c *Controller) guiMethods() map[string]domain.ScriptFunc {
	return map[string]domain.ScriptFunc{
		"clickButton": func(args ...any) (any, error) {
			name, err := stringArg(args, 0, "button")
			if err != nil {
				return nil, err
			}
			c.ClickButton(name, time.Duration(intArg(args, 1))*time.Millisecond)
			return nil, nil
		},
		"currentPageID": func(...any) (any, error) { return int(c.driver.Current()), nil },
		"currentPageName": func(...any) (any, error) {
			if p, ok := c.CurrentPage(); ok {
				return p.Name(), nil
			}
			return "", nil
		},
		"setAutomatedPageSwitchEnabled": func(args ...any) (any, error) {
			c.SetAutomatedPageSwitchEnabled(boolArg(args, 0))
			return nil, nil
		},
		"rejectWithoutPrompt": func(...any) (any, error) {
			c.Reject()
			return nil, nil
		},
		"isSilent": func(...any) (any, error) { return c.silent, nil },
		"acceptLicenses": func(args ...any) (any, error) {
			c.AcceptLicenses(len(args) == 0 || boolArg(args, 0))
			return nil, nil
		},
		"setTargetDir": func(args ...any) (any, error) {
			dir, err := stringArg(args, 0, "dir")
			if err != nil {
				return nil, err
			}
			c.SetTargetDir(dir)
			return nil, nil
		},
	}
}

func stringArg(args []any, i int, name string) (string, error) {
	if i >= len(args) || args[i] == nil {
		return "", fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, name)
	}
	s, ok := args[i].(string)
	if !ok {
		return fmt.Sprint(args[i]), nil
	}
	return s, nil
}

func boolArg(args []any, i int) bool {
	if i >= len(args) {
		return false
	}
	b, _ := args[i].(bool)
	return b
}

func intArg(args []any, i int) int {
	if i >= len(args) {
		return 0
	}
	switch v := args[i].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// pageArg accepts either a numeric page id or a well-known page name.
func pageArg(args []any, i int) (domain.PageID, error) {
	if i >= len(args) {
		return domain.PageNone, fmt.Errorf("%w: missing page", domain.ErrInvalidInput)
	}
	if s, ok := args[i].(string); ok {
		id, found := domain.ParsePageID(s)
		if !found {
			return domain.PageNone, fmt.Errorf("%w: unknown page %q", domain.ErrInvalidInput, s)
		}
		return id, nil
	}
	return domain.PageID(intArg(args, i)), nil
}
