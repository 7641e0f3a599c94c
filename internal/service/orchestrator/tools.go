package orchestrator

import "github.com/cloudwego/eino/schema"

// ToolsetVersion 工具契约版本
// 工具结构是部署期静态数据，不按请求生成
const ToolsetVersion = "2025-06"

// ToolInfos 返回助手可请求调用的工具结构
// 网关从不执行工具：模型的调用请求原样返回给调用方，由后续轮次对账
func ToolInfos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: "compute_vat",
			Desc: "Calcule la TVA sur un montant hors taxes selon le pays et le type de taux.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"country_code": {
					Type:     schema.String,
					Desc:     "Code pays ISO 3166-1 alpha-2 (ex: CI, SN, CM)",
					Required: true,
				},
				"amount_ht": {
					Type:     schema.Number,
					Desc:     "Montant hors taxes en francs CFA",
					Required: true,
				},
				"rate_type": {
					Type: schema.String,
					Desc: "Type de taux applicable",
					Enum: []string{"standard", "reduit", "exonere"},
				},
			}),
		},
		{
			Name: "build_depreciation_schedule",
			Desc: "Construit un tableau d'amortissement pour une immobilisation.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"asset_label": {
					Type:     schema.String,
					Desc:     "Libellé de l'immobilisation",
					Required: true,
				},
				"acquisition_cost": {
					Type:     schema.Number,
					Desc:     "Coût d'acquisition hors taxes",
					Required: true,
				},
				"duration_years": {
					Type:     schema.Integer,
					Desc:     "Durée d'amortissement en années",
					Required: true,
				},
				"method": {
					Type: schema.String,
					Desc: "Méthode d'amortissement",
					Enum: []string{"lineaire", "degressif"},
				},
			}),
		},
		{
			Name: "lookup_official_rate",
			Desc: "Recherche un taux officiel (TVA, IS, IRPP, patente) pour un pays donné.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"rate_kind": {
					Type:     schema.String,
					Desc:     "Nature du taux recherché",
					Required: true,
					Enum:     []string{"tva", "is", "irpp", "patente"},
				},
				"country_code": {
					Type:     schema.String,
					Desc:     "Code pays ISO 3166-1 alpha-2",
					Required: true,
				},
			}),
		},
	}
}
