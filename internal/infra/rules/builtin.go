package rules

// builtinRules are hardcoded detection signatures covering the common
// commodity families, used whenever no rule files are configured.
func builtinRules() []Rule {
	return []Rule{
		{
			Name:        "Malware_EICAR_Test",
			Description: "EICAR antivirus test file",
			Strings: [][]byte{
				[]byte(`X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`),
			},
			Source: "builtin",
		},
		{
			Name:        "Mimikatz",
			Description: "Credential dumping tool",
			Strings: [][]byte{
				[]byte("mimikatz"),
				[]byte("sekurlsa::logonpasswords"),
				[]byte("privilege::debug"),
			},
			Source: "builtin",
		},
		{
			Name:        "CobaltStrike_Beacon",
			Description: "CobaltStrike Beacon shellcode",
			Strings: [][]byte{
				[]byte("beacon.dll"),
				[]byte("ReflectiveLoader"),
				[]byte(`%s as %s\%s: %d`),
			},
			Source: "builtin",
		},
		{
			Name:        "Meterpreter",
			Description: "Metasploit Meterpreter payload",
			Strings: [][]byte{
				[]byte("metsrv"),
				[]byte("stdapi_"),
				[]byte("core_channel_open"),
			},
			Source: "builtin",
		},
		{
			Name:        "PowerShell_Encoded",
			Description: "Obfuscated PowerShell",
			Strings: [][]byte{
				[]byte("-EncodedCommand"),
				[]byte("-e JAB"),
				[]byte("FromBase64String"),
			},
			Source: "builtin",
		},
		{
			Name:        "WebShell_Generic",
			Description: "Web shell indicators",
			Strings: [][]byte{
				[]byte("c99shell"),
				[]byte("r57shell"),
				[]byte("WSO "),
				[]byte("<%eval"),
			},
			Source: "builtin",
		},
		{
			Name:        "Ransomware_Note",
			Description: "Ransom note indicators",
			Strings: [][]byte{
				[]byte("Your files have been encrypted"),
				[]byte("Your important files are encrypted"),
			},
			Source: "builtin",
		},
	}
}
