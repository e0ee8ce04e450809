package catalog

// DefaultVersion identifies the built-in catalog.
const DefaultVersion = "ar-judicial-1"

// Default returns the built-in factor catalog for Argentine judicial
// decision texts. It is used whenever no catalog file is configured.
//
// Pattern notes: matching is case-insensitive (the extractor compiles
// every pattern with the (?i) flag) and word boundaries are ASCII, so
// accented alternatives are spelled out inside character classes.
func Default() *Catalog {
	return &Catalog{
		Version: DefaultVersion,
		Factors: []Factor{
			{
				Name: "activism_balance",
				Kind: KindDirectional,
				Min:  -1, Max: 1, Neutral: 0,
				Method: MethodBalance,
				Groups: []PatternGroup{
					{Name: "activismo", Patterns: []string{
						`\b(inconstitucionalidad|control de constitucionalidad|declarar inconstitucional|inv[aá]lid[ao])\b`,
						`\b(interpretación extensiva|espíritu de la ley|finalidad de la norma|ratio legis)\b`,
						`\b(sentamos precedente|establecemos criterio|innovamos)\b`,
						`\b(políticas? públicas?|estado de cosas inconstitucional|supervisión judicial)\b`,
						`\b(tutela judicial efectiva|protección reforzada|activismo judicial)\b`,
					}},
					{Name: "restriccion", Patterns: []string{
						`\b(potestad del legislador|voluntad del legislador|discrecionalidad legislativa)\b`,
						`\b(interpretación literal|tenor literal|clara letra de la ley)\b`,
						`\b(cuestiones no justiciables|separación de poderes|prudencia judicial)\b`,
						`\b(stare decisis|vinculación al precedente|seguimos jurisprudencia)\b`,
					}},
				},
			},
			{
				Name: "formalism_balance",
				Kind: KindDirectional,
				Min:  -1, Max: 1, Neutral: 0,
				Method: MethodBalance,
				Groups: []PatternGroup{
					{Name: "sustancialismo", Patterns: []string{
						`\b(sustancia|fondo|espíritu de la norma|finalidad)\b`,
						`\b(realidad|situación concreta|contexto)\b`,
						`\b(justicia material|equidad)\b`,
					}},
					{Name: "formalismo", Patterns: []string{
						`\b(forma|requisito formal|procedimiento|rito)\b`,
						`\b(letra de la ley|texto expreso|norma clara)\b`,
						`\b(formalidad|cumplimiento estricto)\b`,
					}},
				},
			},
			{
				Name: "rights_protection",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "derechos", Patterns: []string{
						`\b(libertad de expresión|libertad de prensa|censura previa)\b`,
						`\b(igualdad|no discriminación|trato igualitario|diferenciación arbitraria)\b`,
						`\b(debido proceso|derecho de defensa|tutela judicial efectiva)\b`,
						`\b(intimidad|privacidad|datos personales|habeas data)\b`,
						`\b(derecho de propiedad|expropiación|confiscación)\b`,
						`\b(derecho al trabajo|estabilidad laboral|salario mínimo)\b`,
						`\b(derecho a la salud|prestaciones médicas|cobertura)\b`,
						`\b(derecho al ambiente|desarrollo sustentable|daño ambiental)\b`,
						`\b(derecho a la vivienda|vivienda digna)\b`,
						`\b(derecho a la educación|acceso educativo)\b`,
						`\b(interés superior del niño|derechos del niño)\b`,
					}},
				},
			},
			{
				Name: "deference_legislative",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "deferencia", Patterns: []string{
						`\b(potestad del legislador|voluntad del legislador|decisión política)\b`,
						`\b(margen de apreciación del legislador)\b`,
						`\b(no corresponde al juez|excede la función judicial)\b`,
					}},
				},
			},
			{
				Name: "deference_executive",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "deferencia", Patterns: []string{
						`\b(zona de reserva de la administración|discrecionalidad administrativa)\b`,
						`\b(prerrogativas del poder ejecutivo)\b`,
						`\b(mérito u oportunidad|no revisable judicialmente)\b`,
					}},
				},
			},
			{
				Name: "test_proportionality",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "test", Patterns: []string{
						`\b(test de proporcionalidad|proporcionalidad|idoneidad|necesidad y proporcionalidad en sentido estricto)\b`,
						`\b(escrutinio estricto|strict scrutiny|examen riguroso)\b`,
						`\b(escrutinio intermedio|examen intermedio)\b`,
					}},
				},
			},
			{
				Name: "test_reasonableness",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "test", Patterns: []string{
						`\b(test de razonabilidad|razonabilidad|art\.?\s*28|arbitrariedad)\b`,
					}},
				},
			},
			{
				Name: "conventionality_control",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "convencionalidad", Patterns: []string{
						`\b(control de convencionalidad|tratados internacionales|jerarquía constitucional)\b`,
						`\b(CADH|Convención Americana|Pacto de San José|PIDCP)\b`,
					}},
				},
			},
			{
				Name: "arbitrariness_doctrine",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "arbitrariedad", Patterns: []string{
						`\b(arbitrariedad|capricho|irrazonabilidad manifiesta)\b`,
						`\b(caso federal|cuestión federal|sentencia arbitraria)\b`,
						`\b(gravedad institucional|excepcional gravedad)\b`,
					}},
				},
			},
			{
				Name: "pro_worker_principle",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "pro_operario", Patterns: []string{
						`\b(in dubio pro operario|principio protectorio|favor del trabajador)\b`,
					}},
				},
			},
			{
				Name: "pro_consumer_principle",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "pro_consumidor", Patterns: []string{
						`\b(in dubio pro consumidor|favor del consumidor|hipervulnerabilidad)\b`,
					}},
				},
			},
			{
				Name: "pro_persona_principle",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "pro_homine", Patterns: []string{
						`\b(pro homine|pro persona|favor de la persona)\b`,
						`\b(in dubio pro reo|favor del imputado|favor libertatis)\b`,
						`\b(pro actione|favor del acceso a la justicia)\b`,
						`\b(in dubio pro natura|favor del ambiente)\b`,
					}},
				},
			},
			{
				Name: "citation_density",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "fuentes", Patterns: []string{
						`\b(Fallos:|CSJN|Corte Suprema de Justicia de la Nación)\b`,
						`\b(Cámara|Sala|C[ÁA]mara Nacional)\b`,
						`\b(doctrina|tratadista)\b`,
					}},
				},
			},
			{
				Name: "statute_grounding",
				Kind: KindNumeric,
				Min:  0, Max: 1, Neutral: 0,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "normas", Patterns: []string{
						`\b(CCyC|Código Civil|Código Civil y Comercial|art\.?\s*\d+\s*CCyC)\b`,
						`\b(Constitución Nacional|art\.?\s*\d+\s*CN|art\.?\s*\d+\s*Const\.)\b`,
						`\b(LCT|Ley de Contrato de Trabajo|ley 20\.744)\b`,
						`\b(Ley de Defensa del Consumidor|ley 24\.240)\b`,
					}},
				},
			},
			{
				Name:   "bias_pro_worker",
				Kind:   KindNumeric,
				Min:    0, Max: 1, Neutral: 0,
				Sparse: true,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "pro_trabajador", Patterns: []string{
						`\b(trabajador|asalariado|dependiente|relación desigual)\b`,
						`\b(principio protectorio|in dubio pro operario)\b`,
						`\b(vulnerabilidad del trabajador)\b`,
					}},
				},
			},
			{
				Name:   "bias_pro_consumer",
				Kind:   KindNumeric,
				Min:    0, Max: 1, Neutral: 0,
				Sparse: true,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "pro_consumidor", Patterns: []string{
						`\b(consumidor|usuario|vulnerabilidad del consumidor|hipervulnerabilidad)\b`,
						`\b(trato digno|relación de consumo)\b`,
					}},
				},
			},
			{
				Name:   "bias_garantista",
				Kind:   KindNumeric,
				Min:    0, Max: 1, Neutral: 0,
				Sparse: true,
				Method: MethodDensity,
				Groups: []PatternGroup{
					{Name: "garantista", Patterns: []string{
						`\b(garantías constitucionales|tutela judicial efectiva|debido proceso)\b`,
						`\b(in dubio pro reo|favor libertatis)\b`,
						`\b(interpretación restrictiva de normas penales)\b`,
					}},
				},
			},
			{
				Name:            "interpretation",
				Kind:            KindCategorical,
				Method:          MethodDominant,
				DefaultCategory: "mixta",
				Threshold:       0.1,
				Groups: []PatternGroup{
					{Name: "literal", Patterns: []string{
						`\b(texto expreso|letra de la ley|sentido literal|interpretación gramatical)\b`,
					}},
					{Name: "sistematica", Patterns: []string{
						`\b(interpretación sistemática|conjunto normativo|armonización normativa)\b`,
					}},
					{Name: "teleologica", Patterns: []string{
						`\b(finalidad|propósito|objeto de la norma|telos|ratio legis)\b`,
					}},
					{Name: "historica", Patterns: []string{
						`\b(voluntad del constituyente|antecedentes parlamentarios|evolución histórica)\b`,
					}},
					{Name: "evolutiva", Patterns: []string{
						`\b(interpretación dinámica|constitución viviente|evolución social|contexto actual)\b`,
					}},
					{Name: "conforme", Patterns: []string{
						`\b(interpretación conforme|conformidad constitucional)\b`,
					}},
				},
			},
			{
				Name:            "evidence_standard",
				Kind:            KindCategorical,
				Method:          MethodDominant,
				DefaultCategory: "sana_critica",
				Threshold:       0.1,
				Groups: []PatternGroup{
					{Name: "sana_critica", Patterns: []string{
						`\b(sana crítica|reglas de la sana crítica)\b`,
					}},
					{Name: "prueba_tasada", Patterns: []string{
						`\b(prueba legal|prueba tasada|valor predeterminado)\b`,
					}},
					{Name: "libre_conviccion", Patterns: []string{
						`\b(libre convicción|íntima convicción)\b`,
					}},
					{Name: "certeza_positiva", Patterns: []string{
						`\b(certeza positiva|prueba indubitada)\b`,
					}},
					{Name: "mas_alla_duda", Patterns: []string{
						`\b(más allá de toda duda razonable|duda razonable)\b`,
					}},
					{Name: "verosimilitud", Patterns: []string{
						`\b(verosimilitud|prima facie|presunción)\b`,
					}},
				},
			},
			{
				Name:            "dominant_bias",
				Kind:            KindCategorical,
				Method:          MethodDominant,
				DefaultCategory: "neutral",
				Threshold:       0.3,
				Groups: []PatternGroup{
					{Name: "pro_trabajador", Patterns: []string{
						`\b(trabajador|asalariado|dependiente|relación desigual)\b`,
						`\b(principio protectorio|in dubio pro operario)\b`,
						`\b(vulnerabilidad del trabajador)\b`,
					}},
					{Name: "pro_consumidor", Patterns: []string{
						`\b(consumidor|usuario|vulnerabilidad del consumidor|hipervulnerabilidad)\b`,
						`\b(trato digno|relación de consumo)\b`,
					}},
					{Name: "pro_estado", Patterns: []string{
						`\b(prerrogativas del Estado|potestades públicas|interés público)\b`,
						`\b(presunción de legitimidad)\b`,
					}},
					{Name: "garantista", Patterns: []string{
						`\b(garantías constitucionales|tutela judicial efectiva|debido proceso)\b`,
						`\b(in dubio pro reo|favor libertatis)\b`,
						`\b(interpretación restrictiva de normas penales)\b`,
					}},
					{Name: "punitivista", Patterns: []string{
						`\b(sanción ejemplar|reproche|punición)\b`,
						`\b(tolerancia cero|mano dura)\b`,
					}},
				},
			},
		},
	}
}
