package client

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"sidepanel/internal/config"
)

// ToolInfos converts configured tool declarations to eino tool infos.
// Parameters without a type are strings.
func ToolInfos(tools []config.ToolConfig) []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(tools))
	for _, tool := range tools {
		name := strings.TrimSpace(tool.Name)
		if name == "" {
			continue
		}
		info := &schema.ToolInfo{Name: name, Desc: tool.Description}
		if len(tool.Params) > 0 {
			params := make(map[string]*schema.ParameterInfo, len(tool.Params))
			for _, p := range tool.Params {
				typ := schema.DataType(p.Type)
				if typ == "" {
					typ = schema.String
				}
				params[p.Name] = &schema.ParameterInfo{Type: typ, Desc: p.Description, Required: p.Required}
			}
			info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
		}
		out = append(out, info)
	}
	return out
}
