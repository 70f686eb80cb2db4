package buildinfo

const Graffiti = "                  __           _ \n _ __   ___ _ __ / _|_ __ ___ | |\n| '_ \\ / _ \\ '__| |_| '_ ` _ \\| |\n| |_) |  __/ |  |  _| | | | | | |\n| .__/ \\___|_|  |_| |_| |_| |_|_|\n|_|                              \n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "PERFML"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
