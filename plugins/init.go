// Package plugins registers all built-in plugins.
package plugins

import (
	"firestige.xyz/thinkgear/pkg/plugin"
	"firestige.xyz/thinkgear/plugins/reporter/console"
	"firestige.xyz/thinkgear/plugins/reporter/jsonl"
	"firestige.xyz/thinkgear/plugins/reporter/kafka"
)

func init() {
	plugin.RegisterReporter("console", console.NewConsoleReporter)
	plugin.RegisterReporter("jsonl", jsonl.NewReporter)
	plugin.RegisterReporter("kafka", kafka.NewKafkaReporter)
}
