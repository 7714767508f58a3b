package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary the mount relies on.
type Requirement struct {
	Name string
	// Commands are tried in order; the first found on PATH satisfies the
	// requirement.
	Commands    []string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// FuseRequirements lists the helpers needed to mount and unmount without
// root privileges.
func FuseRequirements() []Requirement {
	return []Requirement{
		{
			Name:        "fusermount",
			Commands:    []string{"fusermount3", "fusermount"},
			Description: "Mounts and unmounts FUSE filesystems as an unprivileged user",
		},
	}
}

// BrowserRequirement describes the command used to open the login page.
// An empty command selects the platform default.
func BrowserRequirement(command, fallback string) Requirement {
	fields := strings.Fields(command)
	name := fallback
	if len(fields) > 0 {
		name = fields[0]
	}
	return Requirement{
		Name:        "browser",
		Commands:    []string{name},
		Description: "Opens the Digiposte login page",
		Optional:    true,
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(req))
	}
	return results
}

func check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	var tried []string
	for _, candidate := range req.Commands {
		cmd := strings.TrimSpace(candidate)
		if cmd == "" {
			continue
		}
		tried = append(tried, cmd)
		path, err := exec.LookPath(cmd)
		if err != nil {
			continue
		}
		status.Command = cmd
		status.Path = path
		status.Available = true
		return status
	}
	switch len(tried) {
	case 0:
		status.Detail = "command not configured"
	case 1:
		status.Command = tried[0]
		status.Detail = fmt.Sprintf("binary %q not found", tried[0])
	default:
		status.Command = tried[0]
		status.Detail = fmt.Sprintf("none of %s found", strings.Join(tried, ", "))
	}
	return status
}
